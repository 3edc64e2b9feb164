package http

import (
	"context"
	"net/http"

	"github.com/fjod/printshop/internal/contact"
)

// ContactSender is satisfied by *contact.Service.
type ContactSender interface {
	Submit(ctx context.Context, f contact.Form) error
}

type ContactHandler struct {
	sender ContactSender
}

func NewContactHandler(sender ContactSender) *ContactHandler {
	return &ContactHandler{sender: sender}
}

type ContactResponseDTO struct {
	Message string `json:"message"`
}

// POST /api/v1/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form contact.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	if err := h.sender.Submit(r.Context(), form); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ContactResponseDTO{
		Message: "Thank you for your message! We'll get back to you soon.",
	})
}
