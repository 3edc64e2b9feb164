package http

import (
	"context"
	"net/http"

	"github.com/fjod/printshop/internal/cart"
	"github.com/fjod/printshop/internal/catalog"
	"github.com/fjod/printshop/internal/checkout"
	"github.com/fjod/printshop/internal/customize"
	"github.com/fjod/printshop/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxLineQuantity = 99

// CartProvider is satisfied by *session.Manager.
type CartProvider interface {
	Cart(ctx context.Context, sessionID string) (*cart.Aggregator, error)
}

type CartHandler struct {
	carts   CartProvider
	catalog *catalog.Index
	wizard  *customize.Wizard
}

func NewCartHandler(carts CartProvider, index *catalog.Index, wizard *customize.Wizard) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: index,
		wizard:  wizard,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items     []domain.CartItem   `json:"items"`
	Total     int64               `json:"total"`
	ItemCount int                 `json:"item_count"`
	Summary   domain.OrderSummary `json:"summary"`
}

type CartItemResponse struct {
	Item domain.CartItem `json:"item"`
	Cart CartResponse    `json:"cart"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.cart(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(agg))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	p, found := h.catalog.GetByID(req.ProductID)
	if !found {
		respondProductNotFound(w)
		return
	}

	h.add(w, r, catalogLine(p, req.Quantity))
}

// POST /api/v1/cart/custom-items
func (h *CartHandler) AddCustomItem(w http.ResponseWriter, r *http.Request) {
	var req customize.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	item, err := h.wizard.Build(req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.add(w, r, item)
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	agg, ok := h.cart(w, r)
	if !ok {
		return
	}
	if err := agg.SetQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(agg))
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.cart(w, r)
	if !ok {
		return
	}
	if err := agg.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(agg))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.cart(w, r)
	if !ok {
		return
	}
	if err := agg.Clear(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(agg))
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request, item domain.CartItem) {
	agg, ok := h.cart(w, r)
	if !ok {
		return
	}
	line, err := agg.Add(r.Context(), item)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, CartItemResponse{Item: line, Cart: cartResponse(agg)})
}

func (h *CartHandler) cart(w http.ResponseWriter, r *http.Request) (*cart.Aggregator, bool) {
	agg, err := h.carts.Cart(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return agg, true
}

func cartResponse(agg *cart.Aggregator) CartResponse {
	items := agg.Items()
	return CartResponse{
		Items:     items,
		Total:     agg.Total(),
		ItemCount: agg.ItemCount(),
		Summary:   checkout.Summarize(items),
	}
}

func catalogLine(p domain.Product, quantity int) domain.CartItem {
	item := domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
		Weight:    p.Weight,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	return item
}
