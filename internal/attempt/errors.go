package attempt

import (
	"fmt"
	"strings"
)

// FieldError describes one problem with a raw attempt.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// ValidationError is returned when a raw attempt is rejected. Nothing is
// appended to the log when it is returned.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("invalid attempt: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, msg string) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Invalid returns a ValidationError with a single problem.
func Invalid(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.add(field, msg)
	return e
}
