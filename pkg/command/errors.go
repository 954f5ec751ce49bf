package command

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig    = errors.New("command.invalid_config")
	ErrDuplicateCommand = errors.New("command.duplicate_id")
	ErrCommandNotFound  = errors.New("command.not_found")
	ErrUnknownKind      = errors.New("command.unknown_kind")
	ErrUnknownRule      = errors.New("command.unknown_rule")
	ErrUnknownClique    = errors.New("command.unknown_clique")
	ErrCliqueClash      = errors.New("command.clique_clash")
	ErrInvalidTarget    = errors.New("command.invalid_target")
	ErrNoDialogParent   = errors.New("command.no_dialog_parent")
	ErrNotResumable     = errors.New("command.not_resumable")
)

// ConfigurationError reports a registration problem that should be fixed
// before release. It is reported at boot, never per request.
type ConfigurationError struct {
	Subject string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in '%s': %v", e.Subject, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func NewConfigurationError(subject string, err error) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Err: err}
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}
