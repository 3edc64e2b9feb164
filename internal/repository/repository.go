// Package repository holds the durable storage of the storefront: session snapshots, the
// product catalog and the order log.
package repository

import (
	"context"
	"errors"

	"github.com/fjod/printshop/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores the user and cart snapshots of a session. The two values are
// written independently.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error
	SaveUser(ctx context.Context, sessionID string, user *domain.User) error
	DeleteUser(ctx context.Context, sessionID string) error
}
