package domain

import "fmt"

// PricingResult is the priced view of a cart. Total = Subtotal - Discount + Delivery,
// with Discount already clamped to Subtotal.
type PricingResult struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Delivery int64 `json:"delivery"`
	Total    int64 `json:"total"`
}

// FormatAmount renders a minor-unit amount with two decimal places, e.g. 25000 -> "250.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
