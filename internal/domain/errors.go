package domain

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrUserNotFound = errors.New("user not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrUpstreamAPI  = errors.New("upstream api error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("response decode error")
	ErrNotFound     = errors.New("not found")

	ErrAttestationNotConfigured = errors.New("attestation endpoint not configured")
	ErrSidecarUnavailable       = errors.New("attestation sidecar unavailable")
	ErrTokenInvalid             = errors.New("attestation token invalid")
)
