package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to submit")
	ErrSubmissionInFlight = errors.New("an order submission is already in progress for this cart")
)
