// Package auth is a mock identity provider. Credentials are accepted without checking;
// the signed-in user is stored on the session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultDelay = 500 * time.Millisecond

	demoUserID      = "123"
	demoUserName    = "Demo User"
	demoUserAddress = "Sample Address, City, India"
)

var ErrMissingEmail = errors.New("email is required")

// UserStore persists the user key of a session.
type UserStore interface {
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	SaveUser(ctx context.Context, sessionID string, user *domain.User) error
	DeleteUser(ctx context.Context, sessionID string) error
}

// ProfileUpdate carries the fields to change; nil fields are left as they are.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Provider struct {
	store UserStore
	delay time.Duration
	log   *zap.Logger
}

func NewProvider(store UserStore, delay time.Duration, log *zap.Logger) *Provider {
	if delay < 0 {
		delay = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{store: store, delay: delay, log: log}
}

// Login signs the session in as the demo user with the given email.
func (p *Provider) Login(ctx context.Context, sessionID, email, _ string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	user := &domain.User{
		ID:      demoUserID,
		Name:    demoUserName,
		Email:   email,
		Address: demoUserAddress,
	}
	if err := p.signIn(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *Provider) Register(ctx context.Context, sessionID, name, email, _ string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	user := &domain.User{
		ID:    demoUserID,
		Name:  strings.TrimSpace(name),
		Email: email,
	}
	if err := p.signIn(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *Provider) Logout(ctx context.Context, sessionID string) error {
	if err := p.store.DeleteUser(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	p.log.Info("user signed out", zap.String("session_id", sessionID))
	return nil
}

// Current returns the signed-in user, or nil.
func (p *Provider) Current(ctx context.Context, sessionID string) (*domain.User, error) {
	s, err := p.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.User, nil
}

// UpdateProfile merges update into the signed-in user. Without a signed-in user it does
// nothing and returns nil.
func (p *Provider) UpdateProfile(ctx context.Context, sessionID string, update ProfileUpdate) (*domain.User, error) {
	current, err := p.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	updated := *current
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Email != nil {
		updated.Email = *update.Email
	}
	if update.Address != nil {
		updated.Address = *update.Address
	}

	if err := p.store.SaveUser(ctx, sessionID, &updated); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &updated, nil
}

func (p *Provider) signIn(ctx context.Context, sessionID string, user *domain.User) error {
	if err := wait(ctx, p.delay); err != nil {
		return err
	}
	if err := p.store.SaveUser(ctx, sessionID, user); err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	p.log.Info("user signed in", zap.String("session_id", sessionID), zap.String("user_id", user.ID))
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
