package http

import (
	"net/http"
	"strconv"

	"github.com/fjod/printshop/internal/catalog"
	"github.com/fjod/printshop/internal/customize"
	"github.com/fjod/printshop/internal/domain"
	"github.com/go-chi/chi/v5"
)

const defaultRelatedLimit = 4

type ProductHandler struct {
	catalog *catalog.Index
	wizard  *customize.Wizard
}

func NewProductHandler(index *catalog.Index, wizard *customize.Wizard) *ProductHandler {
	return &ProductHandler{
		catalog: index,
		wizard:  wizard,
	}
}

type CatalogResponse struct {
	Categories []domain.CategoryInfo `json:"categories"`
	PriceMin   int64                 `json:"price_min"`
	PriceMax   int64                 `json:"price_max"`
	Colors     []string              `json:"colors"`
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// GET /api/v1/catalog
func (h *ProductHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	lo, hi := h.catalog.PriceRange()
	respondJSON(w, http.StatusOK, CatalogResponse{
		Categories: h.catalog.Categories(),
		PriceMin:   lo,
		PriceMax:   hi,
		Colors:     customize.Palette,
	})
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ProductsResponse{Products: h.catalog.Filter(f)})
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, found := h.catalog.GetByID(chi.URLParam(r, "id"))
	if !found {
		respondProductNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /api/v1/products/{id}/related
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, found := h.catalog.GetByID(id); !found {
		respondProductNotFound(w)
		return
	}

	limit := defaultRelatedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	respondJSON(w, http.StatusOK, ProductsResponse{Products: h.catalog.RelatedTo(id, limit)})
}

// POST /api/v1/estimate
func (h *ProductHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req customize.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	est, err := h.wizard.Estimate(req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, est)
}

func parseFilter(w http.ResponseWriter, r *http.Request) (catalog.Filter, bool) {
	f := catalog.DefaultFilter()
	q := r.URL.Query()

	// an unknown category matches nothing
	if c := q.Get("category"); c != "" && c != "all" {
		f.Category = domain.Category(c)
	}

	for _, bound := range []struct {
		key string
		dst *int64
	}{
		{key: "price_min", dst: &f.PriceMin},
		{key: "price_max", dst: &f.PriceMax},
	} {
		raw := q.Get(bound.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			respondError(w, http.StatusBadRequest, "invalid_price", bound.key+" must be a non-negative integer")
			return f, false
		}
		*bound.dst = v
	}

	if raw := q.Get("customizable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "customizable must be a boolean")
			return f, false
		}
		f.CustomizableOnly = v
	}

	return f, true
}
