package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionService reads session snapshots through the cache and writes them through to the
// repository.
type SessionService struct {
	repo  repository.SessionRepository
	cache cache.SessionCache
	log   *zap.Logger
	sfg   singleflight.Group // prevents cache stampede

	mu    sync.Mutex
	fills map[string]*cacheFill
}

// cacheFill is a cache write-back of a repository read. A write to the session while the
// fill is in flight marks it stale, and a stale fill is never written.
type cacheFill struct {
	mu    sync.Mutex
	stale bool
}

func NewSessionService(repo repository.SessionRepository, c cache.SessionCache, log *zap.Logger) *SessionService {
	if c == nil {
		c = cache.NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		repo:  repo,
		cache: c,
		log:   log,
		fills: make(map[string]*cacheFill),
	}
}

// Load returns the session. An unknown session is returned empty, not as an error.
func (s *SessionService) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		session, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get error", zap.String("session_id", sessionID), zap.Error(err))
		}

		fill := s.beginFill(sessionID)
		defer s.endFill(sessionID, fill)

		session, errGet := s.repo.GetSession(ctx, sessionID)
		if errors.Is(errGet, repository.ErrSessionNotFound) {
			return &domain.Session{
				ID:        sessionID,
				Cart:      []domain.CartItem{},
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, fmt.Errorf("failed to load session: %w", errGet)
		}

		s.fillCache(ctx, fill, copySession(session))
		return session, nil
	})

	if err != nil {
		return nil, err
	}

	// callers sharing one singleflight result must not share its slices
	return copySession(v.(*domain.Session)), nil
}

func (s *SessionService) SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error {
	if err := s.repo.SaveCart(ctx, sessionID, items); err != nil {
		s.log.Error("repo save cart error", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *SessionService) SaveUser(ctx context.Context, sessionID string, user *domain.User) error {
	if err := s.repo.SaveUser(ctx, sessionID, user); err != nil {
		s.log.Error("repo save user error", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *SessionService) DeleteUser(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteUser(ctx, sessionID); err != nil {
		s.log.Error("repo delete user error", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *SessionService) beginFill(sessionID string) *cacheFill {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &cacheFill{}
	s.fills[sessionID] = f
	return f
}

func (s *SessionService) endFill(sessionID string, f *cacheFill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fills[sessionID] == f {
		delete(s.fills, sessionID)
	}
}

func (s *SessionService) fillCache(ctx context.Context, f *cacheFill, snapshot *domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, snapshot); err != nil {
		s.log.Warn("cache set error", zap.String("session_id", snapshot.ID), zap.Error(err))
	}
}

// invalidateCache runs after the repository write. A fill that read the repository before
// that write is either already in the cache, and deleted here, or is marked stale first.
func (s *SessionService) invalidateCache(sessionID string) {
	s.mu.Lock()
	f := s.fills[sessionID]
	s.mu.Unlock()

	if f != nil {
		f.mu.Lock()
		f.stale = true
		defer f.mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn("cache invalidate error", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func copySession(s *domain.Session) *domain.Session {
	c := &domain.Session{ID: s.ID, UpdatedAt: s.UpdatedAt}
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	c.Cart = make([]domain.CartItem, len(s.Cart))
	for i, item := range s.Cart {
		c.Cart[i] = item.Clone()
	}
	return c
}
