package documents

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation caller input violates a field rule; matched by every *ValidationError
	ErrValidation = errors.New("invalid document")
	// ErrNotFound no matching document, or the passphrase did not match
	ErrNotFound = errors.New("document not found")
	// ErrStorageUnavailable the collection storage could not be read or written
	ErrStorageUnavailable = errors.New("document storage unavailable")
)

// ValidationError the first violated field rule of a create request
type ValidationError struct {
	// Field JSON name of the offending field
	Field string
	// Reason human readable rule description
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid document: %s %s", e.Field, e.Reason)
}

// Is match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
