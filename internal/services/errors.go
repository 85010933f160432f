package services

import "github.com/pkg/errors"

// ErrValidation is matched by every structural validation failure returned by the services.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or empty required field. It is never partially applied.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	ErrProjectRequired     = &ValidationError{Message: "projectName is required"}
	ErrCommandTypeRequired = &ValidationError{Message: "command type is required"}
	ErrEmptyPayload        = &ValidationError{Message: "command payload is empty"}

	// Not-found outcomes are normal "try again later" results, not faults.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrQueueEmpty       = errors.New("no pending commands")

	ErrExportDisabled  = errors.New("snapshot export is not configured")
	ErrJournalDisabled = errors.New("command journal is not configured")
)
