package application

import (
	"errors"
	"fmt"

	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timetable"
)

var (
	// ErrForbidden is returned when the acting principal lacks permission for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a record with the same identity already exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidState is returned when an operation is not legal in the record's
	// current lifecycle state, such as approving a reservation twice.
	ErrInvalidState = errors.New("application: invalid state")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError rejects a write whose time window collides with occupancy
// already in force. It names the dimension and the record collided with so the
// caller can report exactly what is in the way.
type ConflictError struct {
	Dimension  scheduler.ResourceKind
	ResourceID string
	Date       timetable.Date
	With       scheduler.OccupancyRef
	Window     timetable.Interval
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("schedule conflict: %s %s is occupied %s on %s by %s %s",
		c.Dimension, c.ResourceID, c.Window, c.Date, c.With.Source, c.With.ID)
}

func conflictError(date timetable.Date, conflict *scheduler.Conflict) *ConflictError {
	return &ConflictError{
		Dimension:  conflict.Dimension,
		ResourceID: conflict.ResourceID,
		Date:       date,
		With:       conflict.With,
		Window:     conflict.Interval,
	}
}
