package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is the sentinel every NotFoundError unwraps to.
var ErrNotFound = errors.New("not found")

// ErrConfirmationRequired is returned when a destructive bulk action is
// requested without a confirmation step.
var ErrConfirmationRequired = errors.New("confirmation required")

// ValidationError carries field-level messages. It blocks publish and
// save-to-library only.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a backend failure of operation Op.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

type UnknownTypeError struct {
	Type QuestionType
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown question type %q", string(e.Type))
}

// IndexError reports a reorder position outside [0, Len).
type IndexError struct {
	Index int
	Len   int
}

func (e IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0,%d)", e.Index, e.Len)
}
