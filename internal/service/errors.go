package service

import (
	"errors"
	"fmt"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	// ErrLeadConflict is returned when an update kept losing the version race
	// to concurrent writers and gave up.
	ErrLeadConflict = errors.New("lead was modified concurrently, retry the update")
)

// ValidationError reports caller input the service refuses to persist.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
