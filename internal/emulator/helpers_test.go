// internal/emulator/helpers_test.go
package emulator

import "github.com/simonvetter/modbus"

func holding(unit uint8, addr, qty uint16, args []uint16) *modbus.HoldingRegistersRequest {
	return &modbus.HoldingRegistersRequest{
		UnitId:   unit,
		Addr:     addr,
		Quantity: qty,
		IsWrite:  args != nil,
		Args:     args,
	}
}
