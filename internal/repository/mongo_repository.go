package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionsCollection = "sessions"
	sessionExpiryIndex = "session_expiry"
)

// sessionTTL is how long an untouched session document survives.
const sessionTTL = 90 * 24 * time.Hour

type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongoRepository connects to database and makes sure session documents expire after
// sessionTTL of inactivity.
func OpenMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName("printshop").
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	repo := &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(sessionsCollection),
	}
	if err := repo.ensureExpiryIndex(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s domain.Session

	err := m.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if s.Cart == nil {
		s.Cart = []domain.CartItem{}
	}
	return &s, nil
}

func (m *MongoRepository) SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	update := bson.M{"$set": bson.M{"cart": items, "updated_at": time.Now()}}

	if err := m.upsert(ctx, sessionID, update); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *MongoRepository) SaveUser(ctx context.Context, sessionID string, user *domain.User) error {
	if user == nil {
		return m.DeleteUser(ctx, sessionID)
	}
	update := bson.M{
		"$set":         bson.M{"user": user, "updated_at": time.Now()},
		"$setOnInsert": bson.M{"cart": []domain.CartItem{}},
	}

	if err := m.upsert(ctx, sessionID, update); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (m *MongoRepository) DeleteUser(ctx context.Context, sessionID string) error {
	update := bson.M{
		"$unset": bson.M{"user": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}

	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": sessionID}, update)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (m *MongoRepository) ensureExpiryIndex(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().
			SetName(sessionExpiryIndex).
			SetExpireAfterSeconds(int32(sessionTTL.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create session expiry index: %w", err)
	}
	return nil
}

func (m *MongoRepository) upsert(ctx context.Context, sessionID string, update bson.M) error {
	opts := options.Update().SetUpsert(true)
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": sessionID}, update, opts)
	return err
}
