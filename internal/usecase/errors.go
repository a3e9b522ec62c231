package usecase

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate idempotency key")
	ErrCustomerNotFound = errors.New("customer not found")

	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")

	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderAlreadyProcessed = errors.New("order already processed")
	ErrAuthenticityMismatch  = errors.New("authenticity hash mismatch")

	ErrForbidden      = errors.New("forbidden")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)
