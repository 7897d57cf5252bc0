package access_test

import (
	"testing"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

var (
	farmer      = access.Actor{ID: 1, Role: models.RoleFarmer}
	otherFarmer = access.Actor{ID: 2, Role: models.RoleFarmer}
	buyer       = access.Actor{ID: 3, Role: models.RoleBuyer}
)

func TestAuthorize_PublicReads(t *testing.T) {
	product := &models.Product{ID: 10, FarmerID: farmer.ID}
	review := &models.Review{ID: 20, UserID: buyer.ID}

	for _, actor := range []access.Actor{access.Anonymous(), farmer, otherFarmer, buyer} {
		assert.NoError(t, access.Authorize(actor, product, access.OpRead))
		assert.NoError(t, access.Authorize(actor, review, access.OpRead))
	}
}

func TestAuthorize_ProductWrite(t *testing.T) {
	product := &models.Product{ID: 10, FarmerID: farmer.ID}

	assert.NoError(t, access.Authorize(farmer, product, access.OpUpdate))
	assert.NoError(t, access.Authorize(farmer, product, access.OpDelete))

	err := access.Authorize(otherFarmer, product, access.OpUpdate)
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = access.Authorize(buyer, product, access.OpDelete)
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = access.Authorize(access.Anonymous(), product, access.OpUpdate)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestAuthorize_OrderWrite(t *testing.T) {
	order := &models.Order{ID: 30, BuyerID: buyer.ID}

	assert.NoError(t, access.Authorize(buyer, order, access.OpUpdate))
	assert.ErrorIs(t, access.Authorize(farmer, order, access.OpUpdate), models.ErrForbidden)
}

func TestAuthorize_ReviewWrite(t *testing.T) {
	review := &models.Review{ID: 20, UserID: buyer.ID}

	assert.NoError(t, access.Authorize(buyer, review, access.OpDelete))
	assert.ErrorIs(t, access.Authorize(farmer, review, access.OpDelete), models.ErrForbidden)
}

func TestAuthorize_UserSelfOnly(t *testing.T) {
	user := &models.User{ID: buyer.ID}

	assert.NoError(t, access.Authorize(buyer, user, access.OpRead))
	assert.NoError(t, access.Authorize(buyer, user, access.OpUpdate))
	assert.ErrorIs(t, access.Authorize(farmer, user, access.OpRead), models.ErrForbidden)
	assert.ErrorIs(t, access.Authorize(farmer, user, access.OpUpdate), models.ErrForbidden)
	assert.ErrorIs(t, access.Authorize(access.Anonymous(), user, access.OpRead), models.ErrUnauthenticated)
}

type unowned struct{}

func (unowned) Ownership() models.Ownership { return models.Ownership{} }

func TestAuthorize_NoRelationDenied(t *testing.T) {
	assert.ErrorIs(t, access.Authorize(farmer, unowned{}, access.OpUpdate), models.ErrForbidden)
}

func TestActor(t *testing.T) {
	assert.False(t, access.Anonymous().Authenticated())
	assert.True(t, farmer.IsFarmer())
	assert.False(t, buyer.IsFarmer())
}
