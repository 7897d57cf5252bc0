package service_test

import (
	"context"
	"testing"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Register(t *testing.T) {
	users := newFakeUserRepo()
	svc := service.NewUserService(testLogger(), users)
	ctx := context.Background()

	u, err := svc.Register(ctx, service.RegisterInput{
		Username: "  carol ",
		Email:    "carol@example.com",
		Password: "pa55word",
		Role:     models.RoleFarmer,
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PassHash, []byte("pa55word")))

	_, err = svc.Register(ctx, service.RegisterInput{Username: "carol", Email: "other@example.com", Password: "x", Role: models.RoleBuyer})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.Register(ctx, service.RegisterInput{Username: "dave", Email: "dave@example.com", Password: "x", Role: "admin"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUserService_SelfOnly(t *testing.T) {
	users := newFakeUserRepo()
	alice := users.add("alice", models.RoleBuyer)
	bob := users.add("bob", models.RoleFarmer)
	svc := service.NewUserService(testLogger(), users)
	ctx := context.Background()
	actor := access.Actor{ID: alice.ID, Role: alice.Role}

	list, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].ID)

	_, err = svc.Get(ctx, actor, bob.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Me(ctx, access.Anonymous())
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	city := "Almaty"
	updated, err := svc.Update(ctx, actor, alice.ID, service.UserPatch{Address: &city})
	require.NoError(t, err)
	assert.Equal(t, city, updated.Address)
	assert.Equal(t, "alice", updated.Username)

	_, err = svc.Update(ctx, actor, bob.ID, service.UserPatch{Address: &city})
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, actor, bob.ID), models.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, actor, alice.ID))
	assert.Len(t, users.users, 1)
}

func TestUserService_Farmers(t *testing.T) {
	users := newFakeUserRepo()
	users.add("alice", models.RoleBuyer)
	bob := users.add("bob", models.RoleFarmer)
	svc := service.NewUserService(testLogger(), users)

	farmers, err := svc.Farmers(context.Background())
	require.NoError(t, err)
	require.Len(t, farmers, 1)
	assert.Equal(t, bob.ID, farmers[0].ID)
}
