package service_test

import (
	"context"
	"testing"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/service"
	"github.com/linemk/agriconnect/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService(t *testing.T) {
	products := newFakeProductRepo()
	reviews := newFakeReviewRepo()
	svc := service.NewReviewService(testLogger(), reviews, products)
	ctx := context.Background()
	p, _ := products.CreateProduct(ctx, &models.Product{Title: "Honey", FarmerID: 1, Category: models.CategoryOther})
	author := access.Actor{ID: 5, Role: models.RoleBuyer}
	other := access.Actor{ID: 6, Role: models.RoleBuyer}

	r, err := svc.Create(ctx, author, p.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, author.ID, r.UserID)

	_, err = svc.Create(ctx, author, p.ID, 3, "again")
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.Create(ctx, other, p.ID, 6, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, other, 999, 4, "")
	assert.ErrorIs(t, err, storage.ErrUnknownProduct)

	_, err = svc.Create(ctx, access.Anonymous(), p.ID, 4, "")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	rating := 2
	_, err = svc.Update(ctx, other, r.ID, service.ReviewPatch{Rating: &rating})
	assert.ErrorIs(t, err, models.ErrForbidden)

	updated, err := svc.Update(ctx, author, r.ID, service.ReviewPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "great", updated.Comment)

	mine, err := svc.Mine(ctx, author)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.ErrorIs(t, svc.Delete(ctx, other, r.ID), models.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, author, r.ID))
	_, err = svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
