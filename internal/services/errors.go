package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// the HTTP error taxonomy; anything else is a 500.
var (
	ErrNotFound            = errors.New("not found")
	ErrPlanInactive        = errors.New("plan is not active")
	ErrInvalidQuantity     = errors.New("quantity must be between 1 and 50")
	ErrQuotaExceeded       = errors.New("free key quota exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCapacityExceeded    = errors.New("device capacity exceeded")
	ErrLicenseNotUsable    = errors.New("license is not in a usable state")
	ErrAlreadyConfirmed    = errors.New("order payment already confirmed")
	ErrNotCancellable      = errors.New("order can no longer be cancelled")
	ErrTerminalStatus      = errors.New("license status is terminal")
	ErrNoFreeKeyPlan       = errors.New("reseller has no free key plan configured")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)
