// internal/status/errorcode.go
package status

import "errors"

// GenericErrorCode is reported for errors that do not expose a code.
const GenericErrorCode uint16 = 1

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// A Modbus exception code wins over the class codes of wrapping errors.
// If the error does not expose a non-zero code, returns GenericErrorCode.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ ModbusCode() uint16 }
	type coderB interface{ ErrorCode() uint16 }
	type coderC interface{ Code() uint16 }

	var a coderA
	if errors.As(err, &a) {
		if c := a.ModbusCode(); c != 0 {
			return c
		}
	}
	var b coderB
	if errors.As(err, &b) {
		if c := b.ErrorCode(); c != 0 {
			return c
		}
	}
	var c coderC
	if errors.As(err, &c) {
		if v := c.Code(); v != 0 {
			return v
		}
	}

	return GenericErrorCode
}
