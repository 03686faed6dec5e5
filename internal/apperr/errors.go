// Package apperr is the error taxonomy shared by the staging model, the
// approval resolver, repositories and the REST layer.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Category groups errors by how the caller should react to them.
type Category string

const (
	CategoryValidation      Category = "validation"
	CategoryConflict        Category = "conflict"
	CategoryNotFound        Category = "not_found"
	CategoryNoPendingChange Category = "no_pending_change"
	CategoryAuthentication  Category = "authentication"
	CategoryAuthorization   Category = "authorization"
	CategoryDatabase        Category = "database"
	CategoryUpstream        Category = "upstream"
)

// Sentinels for errors.Is. A *Error matches the sentinel of its category.
var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("action already in review")
	ErrNotFound        = errors.New("not found")
	ErrNoPendingChange = errors.New("already resolved")
)

// Error is a categorized failure with optional field level messages.
type Error struct {
	Category Category          `json:"category"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Cause    error             `json:"-"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("[%s:%s] %s (%s)", e.Category, e.Code, e.Message, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Category == CategoryValidation
	case ErrConflict:
		return e.Category == CategoryConflict
	case ErrNotFound:
		return e.Category == CategoryNotFound
	case ErrNoPendingChange:
		return e.Category == CategoryNoPendingChange
	}
	return false
}

// LogFields returns structured fields for logrus.
func (e *Error) LogFields() logrus.Fields {
	f := logrus.Fields{
		"error_category": e.Category,
		"error_code":     e.Code,
		"error_message":  e.Message,
	}
	if e.Cause != nil {
		f["underlying_error"] = e.Cause.Error()
	}
	return f
}

// Validation builds a ValidationError from per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{
		Category: CategoryValidation,
		Code:     "VALIDATION_FAILED",
		Message:  "invalid input",
		Fields:   fields,
	}
}

// Invalid is a ValidationError without field detail.
func Invalid(msg string) *Error {
	return &Error{Category: CategoryValidation, Code: "VALIDATION_FAILED", Message: msg}
}

func Conflict(msg string) *Error {
	if msg == "" {
		msg = ErrConflict.Error()
	}
	return &Error{Category: CategoryConflict, Code: "ALREADY_IN_REVIEW", Message: msg}
}

func NotFound(entity, id string) *Error {
	return &Error{
		Category: CategoryNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s %s not found", entity, id),
	}
}

func NoPendingChange(entity, id string) *Error {
	return &Error{
		Category: CategoryNoPendingChange,
		Code:     "NO_PENDING_CHANGE",
		Message:  fmt.Sprintf("%s %s has no pending change", entity, id),
	}
}

func Unauthenticated(msg string) *Error {
	return &Error{Category: CategoryAuthentication, Code: "UNAUTHENTICATED", Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Category: CategoryAuthorization, Code: "FORBIDDEN", Message: msg}
}

// Wrap attaches a category and code to an infrastructure error.
func Wrap(err error, category Category, code string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Code: code, Message: err.Error(), Cause: err}
}

// CategoryOf returns the category of err, or "" when err is not an *Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// FieldsOf returns field messages carried by a ValidationError.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
