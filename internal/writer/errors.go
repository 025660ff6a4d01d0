// internal/writer/errors.go
package writer

import "fmt"

// ValidationError rejects a write request before any transport call.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// ErrorCode is the status code reported for rejected requests.
func (e *ValidationError) ErrorCode() uint16 { return 0x300 }

func invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
