// Package session maps storefront sessions to their live cart aggregators.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/cart"
	"github.com/fjod/printshop/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIdleTTL = 30 * time.Minute

	maxCleanupInterval = 30 * time.Second
)

// Store is the durable view of a session. *service.SessionService implements it.
type Store interface {
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error
}

type entry struct {
	cart     *cart.Aggregator
	lastUsed time.Time
}

// Manager hands out exactly one cart aggregator per live session. Aggregators idle for
// longer than the idle TTL are dropped; their state is already persisted.
type Manager struct {
	mu      sync.Mutex
	store   Store
	entries map[string]*entry
	idleTTL time.Duration
	log     *zap.Logger
	sfg     singleflight.Group
	now     func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewManager(store Store, idleTTL time.Duration, log *zap.Logger) *Manager {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:       store,
		entries:     make(map[string]*entry),
		idleTTL:     idleTTL,
		log:         log,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	interval := idleTTL / 2
	if interval > maxCleanupInterval {
		interval = maxCleanupInterval
	}
	m.wg.Add(1)
	go m.cleanupLoop(interval)

	return m
}

// Cart returns the session's aggregator, restoring it from the store on first use.
func (m *Manager) Cart(ctx context.Context, sessionID string) (*cart.Aggregator, error) {
	if a, ok := m.lookup(sessionID); ok {
		return a, nil
	}

	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		if a, ok := m.lookup(sessionID); ok {
			return a, nil
		}

		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to restore cart: %w", err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		a := cart.NewAggregator(sessionID, s.Cart, m.store)
		m.entries[sessionID] = &entry{cart: a, lastUsed: m.now()}
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cart.Aggregator), nil
}

// User returns the signed-in user of the session, or nil.
func (m *Manager) User(ctx context.Context, sessionID string) (*domain.User, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.User, nil
}

// Len is the number of sessions with a live aggregator.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the idle cleanup loop.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
	m.wg.Wait()
}

func (m *Manager) lookup(sessionID string) (*cart.Aggregator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = m.now()
	return e.cart, true
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTTL)
	evicted := 0
	for id, e := range m.entries {
		if e.lastUsed.Before(cutoff) {
			delete(m.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.log.Debug("evicted idle sessions", zap.Int("count", evicted), zap.Int("live", len(m.entries)))
	}
}
