package checkout

import (
	"sync"
	"time"

	"github.com/fjod/printshop/internal/domain"
)

// Task is one checkout submission. It starts PENDING and ends COMPLETED or FAILED.
type Task struct {
	ID        string
	SessionID string

	mu         sync.Mutex
	status     domain.CheckoutStatus
	order      *domain.Order
	err        error
	finishedAt time.Time
	done       chan struct{}
	onDone     func(*Task)
}

func newTask(id, sessionID string, onDone func(*Task)) *Task {
	return &Task{
		ID:        id,
		SessionID: sessionID,
		status:    domain.CheckoutStatusPending,
		done:      make(chan struct{}),
		onDone:    onDone,
	}
}

// Done is closed once the task reaches a terminal status and its callback has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Status() domain.CheckoutStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Result returns the placed order or the failure. Both are nil while the task is pending.
func (t *Task) Result() (*domain.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order, t.err
}

func (t *Task) complete(order *domain.Order, now time.Time) {
	t.finish(domain.CheckoutStatusCompleted, order, nil, now)
}

func (t *Task) fail(err error, now time.Time) {
	t.finish(domain.CheckoutStatusFailed, nil, err, now)
}

func (t *Task) finish(status domain.CheckoutStatus, order *domain.Order, err error, now time.Time) {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.status = status
	t.order = order
	t.err = err
	t.finishedAt = now
	t.mu.Unlock()

	if t.onDone != nil {
		t.onDone(t)
	}
	close(t.done)
}

func (t *Task) finishedBefore(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status.IsTerminal() && t.finishedAt.Before(cutoff)
}
