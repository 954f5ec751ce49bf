package audit

import "errors"

var (
	ErrStorageNotAvailable = errors.New("audit.storage_unavailable")
	ErrEventValidation     = errors.New("audit.invalid_event")
)
