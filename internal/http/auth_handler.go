package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/printshop/internal/auth"
	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/logger"
	"go.uber.org/zap"
)

// IdentityProvider is satisfied by *auth.Provider.
type IdentityProvider interface {
	Login(ctx context.Context, sessionID, email, password string) (*domain.User, error)
	Register(ctx context.Context, sessionID, name, email, password string) (*domain.User, error)
	Logout(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, sessionID string, update auth.ProfileUpdate) (*domain.User, error)
}

// OrderLister is satisfied by *checkout.Service.
type OrderLister interface {
	Orders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type AuthHandler struct {
	identity IdentityProvider
	orders   OrderLister
}

func NewAuthHandler(identity IdentityProvider, orders OrderLister) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		orders:   orders,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequestDTO struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

type OrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.Login(r.Context(), sessionIDFromContext(r.Context()), req.Email, req.Password)
	if err != nil {
		h.authFailed(w, r, "login", "Login failed. Please check your credentials.", err)
		return
	}
	respondJSON(w, http.StatusOK, UserResponse{User: user})
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.Register(r.Context(), sessionIDFromContext(r.Context()), req.Name, req.Email, req.Password)
	if err != nil {
		h.authFailed(w, r, "register", "Registration failed. Please try again.", err)
		return
	}
	respondJSON(w, http.StatusCreated, UserResponse{User: user})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Logout(r.Context(), sessionIDFromContext(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, UserResponse{User: user})
}

// PATCH /api/v1/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.UpdateProfile(r.Context(), sessionIDFromContext(r.Context()), auth.ProfileUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
		return
	}
	respondJSON(w, http.StatusOK, UserResponse{User: user})
}

// GET /api/v1/me/orders
func (h *AuthHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.Orders(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := h.identity.Current(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
		return nil, false
	}
	return user, true
}

func (h *AuthHandler) authFailed(w http.ResponseWriter, r *http.Request, op, message string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Warn("authentication failed", zap.String("operation", op), zap.Error(err))
	respondError(w, http.StatusUnauthorized, "authentication_failed", message)
}
