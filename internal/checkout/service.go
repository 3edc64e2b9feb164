package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/cart"
	"github.com/fjod/printshop/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultDelay = 1500 * time.Millisecond

	taskRetention = 10 * time.Minute
)

// Carts is satisfied by *session.Manager.
type Carts interface {
	Cart(ctx context.Context, sessionID string) (*cart.Aggregator, error)
	User(ctx context.Context, sessionID string) (*domain.User, error)
}

// OrderStore is satisfied by *repository.OrderRepository.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
}

type Service struct {
	carts  Carts
	orders OrderStore
	delay  time.Duration
	log    *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	tasks map[string]*Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(carts Carts, orders OrderStore, delay time.Duration, log *zap.Logger) *Service {
	if delay < 0 {
		delay = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		carts:  carts,
		orders: orders,
		delay:  delay,
		log:    log,
		now:    time.Now,
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit validates the form and the cart and starts placing the order in the background.
// onDone, when not nil, is called once the task finishes.
func (s *Service) Submit(ctx context.Context, sessionID string, form domain.CheckoutForm, onDone func(*Task)) (*Task, error) {
	form = NormalizeForm(form)
	if err := ValidateForm(form); err != nil {
		return nil, err
	}

	agg, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	items := agg.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var userID string
	user, err := s.carts.User(ctx, sessionID)
	if err != nil {
		s.log.Warn("checkout without user", zap.String("session_id", sessionID), zap.Error(err))
	} else if user != nil {
		userID = user.ID
	}

	order := &domain.Order{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Items:     items,
		Summary:   Summarize(items),
		Contact:   form,
		Status:    domain.OrderStatusProcessing,
	}

	task := newTask(uuid.NewString(), sessionID, onDone)
	s.register(task)

	s.wg.Add(1)
	go s.run(task, agg, order)

	s.log.Info("checkout submitted",
		zap.String("session_id", sessionID),
		zap.String("checkout_id", task.ID),
		zap.Int64("total", order.Summary.Total))
	return task, nil
}

// Task looks up a submission by id.
func (s *Service) Task(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

// Orders lists a user's orders, newest first.
func (s *Service) Orders(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return []*domain.Order{}, nil
	}
	orders, err := s.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Close fails pending submissions and waits for them to stop.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) run(task *Task, agg *cart.Aggregator, order *domain.Order) {
	defer s.wg.Done()
	log := s.log.With(zap.String("session_id", task.SessionID), zap.String("checkout_id", task.ID))

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.ctx.Done():
		task.fail(s.ctx.Err(), s.now())
		log.Warn("checkout cancelled")
		return
	}

	order.CreatedAt = s.now()
	if err := s.orders.CreateOrder(s.ctx, order); err != nil {
		task.fail(fmt.Errorf("failed to record order: %w", err), s.now())
		log.Error("checkout failed", zap.Error(err))
		return
	}

	if err := agg.Clear(s.ctx); err != nil {
		log.Error("failed to clear cart after checkout", zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	task.complete(order, s.now())
	log.Info("order placed", zap.String("order_id", order.ID.String()))
}

func (s *Service) register(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-taskRetention)
	for id, t := range s.tasks {
		if t.finishedBefore(cutoff) {
			delete(s.tasks, id)
		}
	}
	s.tasks[task.ID] = task
}
