package repository

import (
	"context"
	"testing"
	"time"

	"techtrove/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) model.User {
	now := time.Now().UTC().Truncate(time.Second)
	return model.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool, zerolog.Nop())
	ctx := context.Background()

	u := newUser("ada@example.com")
	require.NoError(t, repo.Create(ctx, &u))

	dup := newUser("ada@example.com")
	assert.ErrorIs(t, repo.Create(ctx, &dup), model.ErrEmailTaken)

	byEmail, err := repo.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Empty(t, byID.Wishlist)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_UpdateRoleDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool, zerolog.Nop())
	ctx := context.Background()

	a := newUser("a@example.com")
	b := newUser("b@example.com")
	require.NoError(t, repo.Create(ctx, &a))
	require.NoError(t, repo.Create(ctx, &b))

	a.Email = "b@example.com"
	assert.ErrorIs(t, repo.Update(ctx, &a), model.ErrEmailTaken)

	a.Email = "a2@example.com"
	a.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, &a))

	require.NoError(t, repo.UpdateRole(ctx, a.ID, model.RoleAdmin))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, "Renamed", got.Name)

	assert.ErrorIs(t, repo.UpdateRole(ctx, uuid.New(), model.RoleAdmin), model.ErrUserNotFound)

	users, total, err := repo.List(ctx, model.UserFilter{Page: 1, Limit: 10, Search: "a2@"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, users, 1)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), model.ErrUserNotFound)
}

func TestUserRepository_Wishlist(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool, zerolog.Nop())
	products := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	u := newUser("wish@example.com")
	require.NoError(t, repo.Create(ctx, &u))
	p := newProduct("Tablet", model.CategoryComputers, "399.00", 4, time.Now())
	seedProducts(t, products, p)

	require.NoError(t, repo.AddToWishlist(ctx, u.ID, p.ID))
	assert.ErrorIs(t, repo.AddToWishlist(ctx, u.ID, p.ID), model.ErrAlreadyInWishlist)
	assert.ErrorIs(t, repo.AddToWishlist(ctx, u.ID, uuid.New()), model.ErrProductNotFound)

	list, err := repo.ListWishlist(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Tablet", list[0].Name)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, got.Wishlist)

	require.NoError(t, repo.RemoveFromWishlist(ctx, u.ID, p.ID))
	assert.ErrorIs(t, repo.RemoveFromWishlist(ctx, u.ID, p.ID), model.ErrNotInWishlist)
}
