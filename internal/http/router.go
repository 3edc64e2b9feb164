// Package http exposes the storefront over a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Auth     *AuthHandler
	Contact  *ContactHandler
}

// NewRouter builds the API router wrapped in OpenTelemetry instrumentation.
func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(SessionMiddleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/catalog", h.Products.Catalog)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{id}", h.Products.Get)
			r.Get("/{id}/related", h.Products.Related)
		})
		r.Post("/estimate", h.Products.Estimate)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Post("/custom-items", h.Cart.AddCustomItem)
			r.Put("/items/{id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{id}", h.Cart.RemoveItem)
		})

		r.Post("/checkout", h.Checkout.InitiateCheckout)
		r.Get("/checkout/{id}", h.Checkout.GetStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/logout", h.Auth.Logout)
		})
		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.Auth.Me)
			r.Patch("/", h.Auth.UpdateMe)
			r.Get("/orders", h.Auth.MyOrders)
		})

		r.Post("/contact", h.Contact.Submit)
	})

	return otelhttp.NewHandler(r, "printshop-http")
}
