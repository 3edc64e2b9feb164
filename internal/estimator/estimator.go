// Package estimator prices custom prints from their size and infill.
package estimator

import (
	"math"

	"github.com/fjod/printshop/internal/domain"
)

const (
	// Density is the PLA filament density in g/mm³ the shop prices against.
	Density = 0.00125
	// BaseRate is the price of one gram of printed material.
	BaseRate int64 = 12
	// SetupFee is charged once per print.
	SetupFee int64 = 100
	// MinPrice is the floor for any custom print.
	MinPrice int64 = 250
)

type Estimate struct {
	WeightGrams  int   `json:"weight_grams"`
	MaterialCost int64 `json:"material_cost"`
	SetupFee     int64 `json:"setup_fee"`
	Price        int64 `json:"price"`
}

// Calculate computes weight and price for a print. Sizes are not range checked.
func Calculate(size domain.Dimensions, infillDensity int) Estimate {
	volume := size.Width * size.Height * size.Depth
	weight := int(roundHalfUp(volume * Density * (float64(infillDensity) / 100)))

	materialCost := int64(weight) * BaseRate
	price := materialCost + SetupFee
	if price < MinPrice {
		price = MinPrice
	}

	return Estimate{
		WeightGrams:  weight,
		MaterialCost: materialCost,
		SetupFee:     SetupFee,
		Price:        price,
	}
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
