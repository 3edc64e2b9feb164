// Package cart implements the per-session shopping cart.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/domain"
)

// Persister stores the complete cart of a session.
type Persister interface {
	SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error
}

// Aggregator owns the line items of one session. Every mutation is persisted before it
// becomes visible; if persisting fails the cart keeps its previous contents.
type Aggregator struct {
	mu        sync.Mutex
	sessionID string
	items     []domain.CartItem
	persister Persister
	now       func() time.Time
	lastMilli int64
}

func NewAggregator(sessionID string, items []domain.CartItem, persister Persister) *Aggregator {
	restored := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		restored = append(restored, item.Clone())
	}

	return &Aggregator{
		sessionID: sessionID,
		items:     restored,
		persister: persister,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for line item ids.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
	return a
}

func (a *Aggregator) SessionID() string {
	return a.sessionID
}

// Add merges item into a matching line or appends it as a new line, and returns the
// resulting line. The caller's id is ignored.
func (a *Aggregator) Add(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if item.Quantity < 1 {
		item.Quantity = 1
	}

	next := a.snapshot()
	pos := -1
	for i := range next {
		if next[i].SameLine(item) {
			pos = i
			break
		}
	}

	if pos >= 0 {
		next[pos].Quantity += item.Quantity
	} else {
		line := item.Clone()
		line.ID = a.newLineID(line.ProductID)
		next = append(next, line)
		pos = len(next) - 1
	}

	if err := a.commit(ctx, next); err != nil {
		return domain.CartItem{}, err
	}
	return a.items[pos].Clone(), nil
}

// Remove is a no-op for an unknown id.
func (a *Aggregator) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remove(ctx, id)
}

// SetQuantity removes the line when quantity <= 0. Unknown ids are ignored.
func (a *Aggregator) SetQuantity(ctx context.Context, id string, quantity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if quantity <= 0 {
		return a.remove(ctx, id)
	}

	next := a.snapshot()
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = quantity
			return a.commit(ctx, next)
		}
	}
	return nil
}

func (a *Aggregator) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commit(ctx, []domain.CartItem{})
}

// Total is the sum of price * quantity over all lines.
func (a *Aggregator) Total() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total int64
	for _, item := range a.items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount is the number of units in the cart, not the number of lines.
func (a *Aggregator) ItemCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, item := range a.items {
		count += item.Quantity
	}
	return count
}

func (a *Aggregator) Items() []domain.CartItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

func (a *Aggregator) remove(ctx context.Context, id string) error {
	next := make([]domain.CartItem, 0, len(a.items))
	for _, item := range a.items {
		if item.ID != id {
			next = append(next, item.Clone())
		}
	}
	if len(next) == len(a.items) {
		return nil
	}
	return a.commit(ctx, next)
}

func (a *Aggregator) commit(ctx context.Context, next []domain.CartItem) error {
	if err := a.persister.SaveCart(ctx, a.sessionID, next); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	a.items = next
	return nil
}

func (a *Aggregator) snapshot() []domain.CartItem {
	out := make([]domain.CartItem, len(a.items))
	for i, item := range a.items {
		out[i] = item.Clone()
	}
	return out
}

// newLineID derives an id from the product and the current time. The timestamp part never
// repeats within one aggregator, and ids already in the cart are skipped.
func (a *Aggregator) newLineID(productID string) string {
	ms := a.now().UnixMilli()
	if ms <= a.lastMilli {
		ms = a.lastMilli + 1
	}
	id := fmt.Sprintf("%s-%d", productID, ms)
	for a.hasID(id) {
		ms++
		id = fmt.Sprintf("%s-%d", productID, ms)
	}
	a.lastMilli = ms
	return id
}

func (a *Aggregator) hasID(id string) bool {
	for _, item := range a.items {
		if item.ID == id {
			return true
		}
	}
	return false
}
