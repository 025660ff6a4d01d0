// internal/transport/transport.go
package transport

import (
	"context"
	"errors"
)

// Client abstracts the Modbus/TCP operations the session needs.
// All values are unsigned 16-bit holding registers.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Connected() bool

	ReadHoldingRegisters(ctx context.Context, addr, qty uint16) ([]uint16, error) // FC 3
	WriteRegister(ctx context.Context, addr, value uint16) error                  // FC 6
	WriteRegisters(ctx context.Context, addr uint16, values []uint16) error       // FC 16
}

// ------------------------------------------------------------
// UNIT IDENTIFIER CONVENTIONS
// ------------------------------------------------------------

// Style is how a unit identifier reaches the driver.
type Style uint8

const (
	// StyleScoped passes the identifier with every request.
	StyleScoped Style = iota
	// StyleSticky stores the identifier on the client for later requests.
	StyleSticky
)

func (s Style) String() string {
	if s == StyleSticky {
		return "sticky"
	}
	return "scoped"
}

// Binding names one unit-identifier calling convention.
type Binding struct {
	Name  string // device_id | slave | unit
	Style Style
}

func (b Binding) String() string {
	return b.Name + "/" + b.Style.String()
}

// ProbeOrder is the fixed order conventions are tried in.
var ProbeOrder = []Binding{
	{Name: "device_id", Style: StyleScoped},
	{Name: "device_id", Style: StyleSticky},
	{Name: "slave", Style: StyleScoped},
	{Name: "slave", Style: StyleSticky},
	{Name: "unit", Style: StyleScoped},
	{Name: "unit", Style: StyleSticky},
}

// UnitAddresser is implemented by drivers that accept a unit identifier.
// BindUnit returns ErrUnsupportedBinding for conventions the driver lacks.
// The returned Client addresses the given unit.
type UnitAddresser interface {
	BindUnit(b Binding, unitID uint8) (Client, error)
}

// Probe finds the first convention the client accepts for unitID.
// Clients without UnitAddresser are returned unchanged with a zero Binding.
// Call once per session and reuse the result.
func Probe(c Client, unitID uint8) (Client, Binding, error) {
	ua, ok := c.(UnitAddresser)
	if !ok {
		return c, Binding{}, nil
	}

	var last error
	tried := make([]Binding, 0, len(ProbeOrder))

	for _, b := range ProbeOrder {
		tried = append(tried, b)

		bound, err := ua.BindUnit(b, unitID)
		if err == nil {
			return bound, b, nil
		}
		if !errors.Is(err, ErrUnsupportedBinding) {
			// not a signature mismatch: surface as-is
			return nil, Binding{}, err
		}
		last = err
	}

	return nil, Binding{}, &CompatibilityError{UnitID: unitID, Tried: tried, Err: last}
}
