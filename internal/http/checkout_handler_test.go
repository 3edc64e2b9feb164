package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCheckoutForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road",
		City:    "Bengaluru",
		Pincode: "560001",
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", validCheckoutForm())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)
	assert.Zero(t, srv.orders.count())
}

func TestCheckout_InvalidForm(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 1})

	form := validCheckoutForm()
	form.Email = "not-an-email"
	form.City = " "
	form.PaymentMethod = "bitcoin"

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Equal(t, map[string]string{
		"email":          "is invalid",
		"city":           "is required",
		"payment_method": "must be one of card, upi, cod",
	}, resp.Details)

	cart := decode[CartResponse](t, srv.do(t, http.MethodGet, "/api/v1/cart", nil))
	assert.Len(t, cart.Items, 1)
}

func TestCheckout_PlacesOrderAndClearsCart(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "4", Quantity: 1})

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", validCheckoutForm())
	require.Equal(t, http.StatusAccepted, rec.Code)

	submitted := decode[CheckoutResponseDTO](t, rec)
	require.NotEmpty(t, submitted.CheckoutID)
	assert.Equal(t, "/api/v1/checkout/"+submitted.CheckoutID, rec.Header().Get("Location"))

	var status CheckoutResponseDTO
	require.Eventually(t, func() bool {
		rec := srv.do(t, http.MethodGet, "/api/v1/checkout/"+submitted.CheckoutID, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		status = decode[CheckoutResponseDTO](t, rec)
		return status.Status == string(domain.CheckoutStatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, status.Order)
	assert.Equal(t, int64(1499), status.Order.Summary.Subtotal)
	assert.Equal(t, int64(1499+100+270), status.Order.Summary.Total)
	assert.Empty(t, status.Error)
	assert.Equal(t, 1, srv.orders.count())

	cart := decode[CartResponse](t, srv.do(t, http.MethodGet, "/api/v1/cart", nil))
	assert.Empty(t, cart.Items)
}

func TestCheckoutStatus_NotFound(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(t, http.MethodGet, "/api/v1/checkout/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Code)
}

func TestCheckoutStatus_OtherSession(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 1})
	submitted := decode[CheckoutResponseDTO](t, srv.do(t, http.MethodPost, "/api/v1/checkout", validCheckoutForm()))

	other := *srv
	other.cookie = &http.Cookie{Name: SessionCookieName, Value: "0f0e5d3c-7a4b-4c2d-8e1f-2a3b4c5d6e7f"}

	rec := other.do(t, http.MethodGet, "/api/v1/checkout/"+submitted.CheckoutID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
