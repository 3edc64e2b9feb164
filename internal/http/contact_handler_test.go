package http

import (
	"net/http"
	"testing"

	"github.com/fjod/printshop/internal/contact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContact_Success(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(t, http.MethodPost, "/api/v1/contact", contact.Form{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Subject: "Bulk order",
		Message: "Do you print 200 keychains?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[ContactResponseDTO](t, rec).Message)
}

func TestContact_Invalid(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(t, http.MethodPost, "/api/v1/contact", contact.Form{Email: "asha@"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, map[string]string{
		"name":    "Name is required",
		"email":   "Email is invalid",
		"message": "Message is required",
	}, resp.Details)
}
