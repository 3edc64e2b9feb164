package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/printshop/internal/domain"
)

var ErrEventNotFound = errors.New("outbox event not found")

// OrderRepository is the order log. Every order is written together with its
// order.placed outbox event.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderPlacedPayload struct {
	OrderID   string              `json:"order_id"`
	SessionID string              `json:"session_id"`
	UserID    string              `json:"user_id,omitempty"`
	Items     []domain.CartItem   `json:"items"`
	Summary   domain.OrderSummary `json:"summary"`
	CreatedAt time.Time           `json:"created_at"`
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	contactJSON, err := json.Marshal(order.Contact)
	if err != nil {
		return fmt.Errorf("failed to marshal order contact: %w", err)
	}
	payload, err := json.Marshal(orderPlacedPayload{
		OrderID:   order.ID.String(),
		SessionID: order.SessionID,
		UserID:    order.UserID,
		Items:     order.Items,
		Summary:   order.Summary,
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders (id, session_id, user_id, items, subtotal, shipping, tax, total, contact, status, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.SessionID,
		order.UserID,
		string(itemsJSON),
		order.Summary.Subtotal,
		order.Summary.Shipping,
		order.Summary.Tax,
		order.Summary.Total,
		string(contactJSON),
		string(order.Status),
		order.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	outboxQuery := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
	                VALUES ($1, $2, $3, $4)`
	_, err = tx.ExecContext(ctx, outboxQuery,
		order.ID.String(),
		domain.EventTypeOrderPlaced,
		string(payload),
		order.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// ListOrdersByUserID returns the user's orders, newest first.
func (r *OrderRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, session_id, user_id, items, subtotal, shipping, tax, total, contact, status, created_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		var order domain.Order
		var itemsJSON, contactJSON []byte
		if err := rows.Scan(
			&order.ID,
			&order.SessionID,
			&order.UserID,
			&itemsJSON,
			&order.Summary.Subtotal,
			&order.Summary.Shipping,
			&order.Summary.Tax,
			&order.Summary.Total,
			&contactJSON,
			&order.Status,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		if err := json.Unmarshal(contactJSON, &order.Contact); err != nil {
			return nil, fmt.Errorf("unmarshal order contact: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *OrderRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events WHERE processed_at IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		event := &domain.OutboxEvent{}
		if err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.EventType,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *OrderRepository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	query := `UPDATE outbox_events SET processed_at = $1 WHERE id = $2 AND processed_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}
