// Package customize turns customization wizard selections into cart line items.
package customize

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/estimator"
)

const (
	DefaultColor         = "#3f83f8"
	DefaultInfillDensity = 20
	DefaultImage         = "https://images.unsplash.com/photo-1631631480669-535cc43f2327?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80"

	MinSide     = 10
	MaxSide     = 200
	MinDepth    = 1
	MaxDepth    = 50
	MinInfill   = 10
	MaxInfill   = 100
	customTitle = "Custom 3D Print"
)

var (
	ErrNothingToPrint  = errors.New("select a product or upload a model file")
	ErrNotCustomizable = errors.New("product cannot be customized")
)

// Palette is the set of filament colors offered by the wizard.
var Palette = []string{"#3f83f8", "#ff5a1f", "#16a34a", "#ef4444", "#8b5cf6", "#000000", "#ffffff"}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func DefaultSize() domain.Dimensions {
	return domain.Dimensions{Width: 50, Height: 50, Depth: 10}
}

// ProductLookup is satisfied by *catalog.Index.
type ProductLookup interface {
	GetByID(id string) (domain.Product, bool)
}

type Request struct {
	ProductID     string             `json:"product_id"`
	Color         string             `json:"color"`
	Size          *domain.Dimensions `json:"size"`
	InfillDensity *int               `json:"infill_density"`
	ModelFile     string             `json:"model_file"`
	Quantity      int                `json:"quantity"`
}

// WithDefaults fills unset selections with the wizard's initial values.
func (r Request) WithDefaults() Request {
	if r.Color == "" {
		r.Color = DefaultColor
	}
	if r.Size == nil {
		size := DefaultSize()
		r.Size = &size
	}
	if r.InfillDensity == nil {
		infill := DefaultInfillDensity
		r.InfillDensity = &infill
	}
	if r.Quantity < 1 {
		r.Quantity = 1
	}
	return r
}

// Validate enforces the ranges the wizard controls allow. Call it on a request with defaults applied.
func (r Request) Validate() error {
	errs := domain.FieldErrors{}
	if !hexColor.MatchString(r.Color) {
		errs["color"] = "must be a #rrggbb color"
	}
	if r.Size != nil {
		if r.Size.Width < MinSide || r.Size.Width > MaxSide {
			errs["size.width"] = fmt.Sprintf("must be between %d and %d mm", MinSide, MaxSide)
		}
		if r.Size.Height < MinSide || r.Size.Height > MaxSide {
			errs["size.height"] = fmt.Sprintf("must be between %d and %d mm", MinSide, MaxSide)
		}
		if r.Size.Depth < MinDepth || r.Size.Depth > MaxDepth {
			errs["size.depth"] = fmt.Sprintf("must be between %d and %d mm", MinDepth, MaxDepth)
		}
	}
	if r.InfillDensity != nil && (*r.InfillDensity < MinInfill || *r.InfillDensity > MaxInfill) {
		errs["infill_density"] = fmt.Sprintf("must be between %d and %d percent", MinInfill, MaxInfill)
	}
	return errs.Err()
}

type Wizard struct {
	products ProductLookup
}

func NewWizard(products ProductLookup) *Wizard {
	return &Wizard{products: products}
}

// Estimate prices the request without building a line item.
func (w *Wizard) Estimate(req Request) (estimator.Estimate, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return estimator.Estimate{}, err
	}
	return estimator.Calculate(*req.Size, *req.InfillDensity), nil
}

// Build returns the custom line item for the request. An unknown product id means there is no
// product behind the print, which then needs an uploaded model file.
func (w *Wizard) Build(req Request) (domain.CartItem, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return domain.CartItem{}, err
	}

	product, found := w.products.GetByID(req.ProductID)
	if !found && req.ModelFile == "" {
		return domain.CartItem{}, ErrNothingToPrint
	}
	if found && !product.IsCustomizable {
		return domain.CartItem{}, ErrNotCustomizable
	}

	est := estimator.Calculate(*req.Size, *req.InfillDensity)
	size := *req.Size
	infill := *req.InfillDensity

	item := domain.CartItem{
		ProductID: domain.CustomProductID,
		Name:      customTitle,
		Price:     est.Price,
		Quantity:  req.Quantity,
		Image:     DefaultImage,
		IsCustom:  true,
		CustomOptions: &domain.CustomizationOptions{
			Color:         req.Color,
			Size:          &size,
			InfillDensity: &infill,
			ModelFile:     req.ModelFile,
		},
		Weight: est.WeightGrams,
	}
	if found {
		item.ProductID = product.ID
		item.Name = "Custom " + product.Name
		item.Image = product.Images[0]
	}
	return item, nil
}
