package domain

type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "PENDING"
	CheckoutStatusCompleted CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed    CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
