package checkout

import (
	"regexp"
	"strings"

	"github.com/fjod/printshop/internal/domain"
)

const (
	PaymentMethodCard = domain.PaymentMethodCard
	PaymentMethodUPI  = "upi"
	PaymentMethodCOD  = "cod"
)

var paymentMethods = map[string]bool{
	PaymentMethodCard: true,
	PaymentMethodUPI:  true,
	PaymentMethodCOD:  true,
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// NormalizeForm trims every field and defaults the payment method to card.
func NormalizeForm(f domain.CheckoutForm) domain.CheckoutForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.Pincode = strings.TrimSpace(f.Pincode)
	f.PaymentMethod = strings.ToLower(strings.TrimSpace(f.PaymentMethod))
	if f.PaymentMethod == "" {
		f.PaymentMethod = PaymentMethodCard
	}
	return f
}

// ValidateForm checks a normalized form. State is optional.
func ValidateForm(f domain.CheckoutForm) error {
	errs := domain.FieldErrors{}
	required := []struct {
		field, value string
	}{
		{"name", f.Name},
		{"email", f.Email},
		{"phone", f.Phone},
		{"address", f.Address},
		{"city", f.City},
		{"pincode", f.Pincode},
	}
	for _, r := range required {
		if r.value == "" {
			errs[r.field] = "is required"
		}
	}
	if f.Email != "" && !emailPattern.MatchString(f.Email) {
		errs["email"] = "is invalid"
	}
	if !paymentMethods[f.PaymentMethod] {
		errs["payment_method"] = "must be one of card, upi, cod"
	}
	return errs.Err()
}
