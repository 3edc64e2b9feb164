package http

import (
	"context"
	"net/http"

	"github.com/fjod/printshop/internal/checkout"
	"github.com/fjod/printshop/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutService is satisfied by *checkout.Service.
type CheckoutService interface {
	Submit(ctx context.Context, sessionID string, form domain.CheckoutForm, onDone func(*checkout.Task)) (*checkout.Task, error)
	Task(id string) (*checkout.Task, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	log      *zap.Logger
}

func NewCheckoutHandler(svc CheckoutService, log *zap.Logger) *CheckoutHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutHandler{
		checkout: svc,
		log:      log,
	}
}

type CheckoutResponseDTO struct {
	CheckoutID string        `json:"checkout_id"`
	Status     string        `json:"status"`
	Order      *domain.Order `json:"order,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	var form domain.CheckoutForm
	if !decodeJSON(w, r, &form) {
		return
	}

	task, err := h.checkout.Submit(r.Context(), sessionIDFromContext(r.Context()), form, h.logResult)
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/checkout/"+task.ID)
	respondJSON(w, http.StatusAccepted, CheckoutResponseDTO{
		CheckoutID: task.ID,
		Status:     task.Status().String(),
	})
}

// GET /api/v1/checkout/{id}
func (h *CheckoutHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	task, err := h.checkout.Task(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	// Tasks of other sessions are reported as unknown.
	if task.SessionID != sessionIDFromContext(r.Context()) {
		handleError(w, r, checkout.ErrTaskNotFound)
		return
	}

	resp := CheckoutResponseDTO{
		CheckoutID: task.ID,
		Status:     task.Status().String(),
	}
	order, taskErr := task.Result()
	resp.Order = order
	if taskErr != nil {
		resp.Error = "checkout failed, please try again"
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) logResult(t *checkout.Task) {
	order, err := t.Result()
	if err != nil {
		h.log.Warn("checkout task failed", zap.String("checkout_id", t.ID), zap.String("session_id", t.SessionID), zap.Error(err))
		return
	}
	h.log.Info("checkout task completed", zap.String("checkout_id", t.ID), zap.String("order_id", order.ID.String()))
}
