package errors

import "errors"

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrLicenseNotFound       = errors.New("license not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrInvalidOrderRequest   = errors.New("invalid order request")
	ErrInvalidPaymentRequest = errors.New("invalid payment request")
	ErrLicenseNotPurchasable = errors.New("license is not purchasable")
	ErrInvalidTransition     = errors.New("invalid order transition")
	ErrDuplicatePayment      = errors.New("transaction_id already used with a different payload")
	ErrPaymentAmountMismatch = errors.New("payment amount or currency does not match order")
	ErrConcurrentOrderUpdate = errors.New("order was updated concurrently")
	ErrLedgerInvariantBroken = errors.New("payment ledger invariant violated")
)
