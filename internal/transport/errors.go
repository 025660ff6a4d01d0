// internal/transport/errors.go
package transport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConnected is returned by operations issued before Connect.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrUnsupportedBinding is returned by BindUnit for an unknown convention.
	ErrUnsupportedBinding = errors.New("transport: unsupported unit id binding")
)

// ConnectionError reports a transport-level failure (dial, timeout, broken pipe).
// The session reconnects before the next operation.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("modbus connection to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ErrorCode is the status code reported for transport failures.
func (e *ConnectionError) ErrorCode() uint16 { return 0x100 }

// ProtocolError reports a Modbus exception or malformed response.
type ProtocolError struct {
	Op      string // read | write | write_multiple
	Address uint16
	Count   uint16
	Values  []uint16
	Code    uint8 // Modbus exception code, 0 when unknown
	Err     error
}

func (e *ProtocolError) Error() string {
	switch e.Op {
	case "read":
		return fmt.Sprintf("modbus read error at address %d (count=%d): %v", e.Address, e.Count, e.Err)
	case "write":
		v := uint16(0)
		if len(e.Values) > 0 {
			v = e.Values[0]
		}
		return fmt.Sprintf("modbus write error at address %d (value=%d): %v", e.Address, v, e.Err)
	default:
		return fmt.Sprintf("modbus write error at address %d (values=%v): %v", e.Address, e.Values, e.Err)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ModbusCode exposes the device exception code.
func (e *ProtocolError) ModbusCode() uint16 { return uint16(e.Code) }

// CompatibilityError means no unit identifier convention was accepted.
// It is fatal for the session.
type CompatibilityError struct {
	UnitID uint8
	Tried  []Binding
	Err    error
}

func (e *CompatibilityError) Error() string {
	names := make([]string, 0, len(e.Tried))
	for _, b := range e.Tried {
		names = append(names, b.String())
	}
	return fmt.Sprintf("no compatible unit id convention for unit %d (tried %s)", e.UnitID, strings.Join(names, ", "))
}

func (e *CompatibilityError) Unwrap() error { return e.Err }

// ErrorCode is the status code reported when probing failed.
func (e *CompatibilityError) ErrorCode() uint16 { return 0x200 }

// IsConnectionError reports whether err is a transport-level failure.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
