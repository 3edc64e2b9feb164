package repository

import (
	"context"
	"testing"

	"github.com/fjod/printshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_GetSession_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	s, err := repo.GetSession(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, s)
}

func TestMemoryRepository_CartAndUserAreIndependent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	items := []domain.CartItem{{ID: "1-1", ProductID: "1", Name: "Custom Name Keychain", Price: 299, Quantity: 2}}
	require.NoError(t, repo.SaveCart(ctx, "sess", items))
	require.NoError(t, repo.SaveUser(ctx, "sess", &domain.User{ID: "123", Name: "Demo User", Email: "a@b.co"}))

	s, err := repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, items, s.Cart)
	require.NotNil(t, s.User)
	assert.Equal(t, "Demo User", s.User.Name)

	require.NoError(t, repo.DeleteUser(ctx, "sess"))
	s, err = repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, s.User)
	assert.Equal(t, items, s.Cart, "logging out keeps the cart")
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	items := []domain.CartItem{{ID: "1-1", ProductID: "1", Quantity: 1}}
	require.NoError(t, repo.SaveCart(ctx, "sess", items))
	items[0].Quantity = 99

	s, err := repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	s.Cart[0].Quantity = 42

	again, err := repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Cart[0].Quantity)
}
