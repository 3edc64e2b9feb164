package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/domain"
)

// MemoryRepository keeps session snapshots in process memory. State is lost on restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*domain.Session)}
}

func (m *MemoryRepository) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryRepository) SaveCart(_ context.Context, sessionID string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getOrCreate(sessionID)
	s.Cart = cloneItems(items)
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) SaveUser(_ context.Context, sessionID string, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getOrCreate(sessionID)
	s.User = cloneUser(user)
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) DeleteUser(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		s.User = nil
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MemoryRepository) getOrCreate(sessionID string) *domain.Session {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &domain.Session{ID: sessionID, Cart: []domain.CartItem{}}
		m.sessions[sessionID] = s
	}
	return s
}

func cloneSession(s *domain.Session) *domain.Session {
	return &domain.Session{
		ID:        s.ID,
		User:      cloneUser(s.User),
		Cart:      cloneItems(s.Cart),
		UpdatedAt: s.UpdatedAt,
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
