package dialog

import "errors"

var (
	ErrNoHost        = errors.New("dialog.no_host")
	ErrUnknownDialog = errors.New("dialog.unknown")
	ErrNotOpen       = errors.New("dialog.not_open")
	ErrMissingName   = errors.New("dialog.missing_name")
)

// Error and reason keys reported in command results.
const (
	KeyNoHost         = "dialog.error.no_host"
	KeyUnknownDialog  = "dialog.error.unknown"
	ReasonNotInDialog = "dialog.disabled.not_in_dialog"
)
