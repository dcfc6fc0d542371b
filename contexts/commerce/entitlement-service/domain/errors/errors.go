package errors

import "errors"

var (
	ErrEntitlementNotFound         = errors.New("entitlement not found")
	ErrInvalidEntitlementRequest   = errors.New("invalid entitlement request")
	ErrQuotaExceeded               = errors.New("deployment quota exceeded")
	ErrEntitlementExpired          = errors.New("entitlement expired")
	ErrEntitlementRevoked          = errors.New("entitlement revoked")
	ErrConcurrentEntitlementUpdate = errors.New("entitlement was updated concurrently")
	ErrDuplicateEntitlementKey     = errors.New("entitlement already exists for key")
)
