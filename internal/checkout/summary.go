// Package checkout places orders for the contents of a session's cart.
package checkout

import "github.com/fjod/printshop/internal/domain"

const (
	ShippingFee int64 = 100
	// TaxPercent is applied to the subtotal and rounded half up.
	TaxPercent int64 = 18
)

// Summarize prices a cart. Shipping applies only to a non-empty cart.
func Summarize(items []domain.CartItem) domain.OrderSummary {
	var subtotal int64
	for _, item := range items {
		subtotal += item.Price * int64(item.Quantity)
	}

	var shipping int64
	if len(items) > 0 {
		shipping = ShippingFee
	}
	tax := (subtotal*TaxPercent + 50) / 100

	return domain.OrderSummary{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
