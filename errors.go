package flow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("flow: validation failed")
	ErrNotFound   = errors.New("flow: not found")
	ErrStore      = errors.New("flow: store failure")

	ErrNodeNotFound       = fmt.Errorf("%w: node", ErrNotFound)
	ErrEdgeNotFound       = fmt.Errorf("%w: edge", ErrNotFound)
	ErrAutomationNotFound = fmt.Errorf("%w: automation", ErrNotFound)

	ErrInvalidEdge   = fmt.Errorf("%w: invalid edge", ErrValidation)
	ErrCycleDetected = fmt.Errorf("%w: cycle detected, graph is not acyclic", ErrInvalidEdge)
	ErrTriggerTarget = fmt.Errorf("%w: a trigger cannot be an edge target", ErrInvalidEdge)
)

// FieldError is a single failed rule on user-supplied data.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid user-supplied data. It matches ErrValidation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "flow: validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// StoreError wraps a failure of the underlying Store. It matches ErrStore.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("flow: store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }
