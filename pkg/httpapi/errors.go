package httpapi

import "errors"

var (
	ErrMissingSession   = errors.New("httpapi.missing_session")
	ErrUnauthenticated  = errors.New("httpapi.unauthenticated")
	ErrInvalidBody      = errors.New("httpapi.invalid_body")
	ErrInvalidBar       = errors.New("httpapi.invalid_bar")
	ErrUnknownComponent = errors.New("httpapi.unknown_component")
	ErrRateLimited      = errors.New("httpapi.rate_limited")
	ErrInvalidGroup     = errors.New("httpapi.invalid_group")
)
