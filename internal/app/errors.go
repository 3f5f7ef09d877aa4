package app

import "errors"

var (
	// ErrNotPermitted indicates the entitlement rules blocked the action.
	ErrNotPermitted     = errors.New("not permitted")
	ErrSignInDisabled   = errors.New("sign-in not configured")
	ErrEmptyImage       = errors.New("image required")
	ErrInvalidIDToken   = errors.New("invalid id token")
	ErrScanServiceError = errors.New("scan service error")
)
