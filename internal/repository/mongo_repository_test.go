package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupMongo(t *testing.T) (*MongoRepository, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	repo, err := OpenMongoRepository(ctx, uri, "testdb")
	require.NoError(t, err)

	cleanup := func() {
		_ = repo.Close(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestOpenMongoRepository_CreatesExpiryIndex(t *testing.T) {
	repo, cleanup := setupMongo(t)
	defer cleanup()
	ctx := context.Background()

	specs, err := repo.collection.Indexes().ListSpecifications(ctx)
	require.NoError(t, err)

	var expiry *mongo.IndexSpecification
	for _, s := range specs {
		if s.Name == sessionExpiryIndex {
			expiry = s
		}
	}
	require.NotNil(t, expiry, "session expiry index missing")
	require.NotNil(t, expiry.ExpireAfterSeconds)
	assert.Equal(t, int32(sessionTTL.Seconds()), *expiry.ExpireAfterSeconds)
}

func TestOpenMongoRepository_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := OpenMongoRepository(ctx, "mongodb://127.0.0.1:1", "testdb")
	assert.ErrorContains(t, err, "failed to ping MongoDB")
}

func TestMongoRepository_GetSession_NotFound(t *testing.T) {
	repo, cleanup := setupMongo(t)
	defer cleanup()

	s, err := repo.GetSession(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, s)
}

func TestMongoRepository_SaveCart_RoundTrip(t *testing.T) {
	repo, cleanup := setupMongo(t)
	defer cleanup()
	ctx := context.Background()

	infill := 35
	items := []domain.CartItem{
		{ID: "1-1", ProductID: "1", Name: "Custom Name Keychain", Price: 299, Quantity: 2, Image: "a.jpg"},
		{
			ID: "custom-2", ProductID: domain.CustomProductID, Name: "Custom 3D Print", Price: 250, Quantity: 1,
			IsCustom: true,
			CustomOptions: &domain.CustomizationOptions{
				Color:         "#ff5a1f",
				Size:          &domain.Dimensions{Width: 40, Height: 40, Depth: 4},
				InfillDensity: &infill,
				ModelFile:     "bunny.stl",
			},
			Weight: 3,
		},
	}
	require.NoError(t, repo.SaveCart(ctx, "sess", items))

	s, err := repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "sess", s.ID)
	assert.Nil(t, s.User)
	assert.Equal(t, items, s.Cart)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestMongoRepository_UserLifecycle(t *testing.T) {
	repo, cleanup := setupMongo(t)
	defer cleanup()
	ctx := context.Background()

	user := &domain.User{ID: "123", Name: "Demo User", Email: "demo@example.com", Address: "Sample Address, City, India"}
	require.NoError(t, repo.SaveUser(ctx, "sess", user))

	s, err := repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, user, s.User)
	assert.Empty(t, s.Cart)

	require.NoError(t, repo.SaveCart(ctx, "sess", []domain.CartItem{{ID: "9-1", ProductID: "9", Quantity: 1}}))
	require.NoError(t, repo.DeleteUser(ctx, "sess"))

	s, err = repo.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, s.User)
	assert.Len(t, s.Cart, 1)
}
