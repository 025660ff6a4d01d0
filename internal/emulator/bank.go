// internal/emulator/bank.go
package emulator

import (
	"sync"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// Bank is the holding register memory of one emulated controller.
// It implements modbus.RequestHandler; only holding registers exist.
type Bank struct {
	mu    sync.Mutex
	regs  [registers.Size]uint16
	unit  uint8
	delay time.Duration

	reads  int
	writes int
}

// NewBank creates an all-zero bank answering unitID.
func NewBank(unitID uint8) *Bank {
	return &Bank{unit: unitID}
}

// Set stores v at addr. Out-of-range addresses are ignored.
func (b *Bank) Set(addr, v uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(addr) < len(b.regs) {
		b.regs[addr] = v
	}
}

// Get returns the word at addr (0 outside the bank).
func (b *Bank) Get(addr uint16) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(addr) < len(b.regs) {
		return b.regs[addr]
	}
	return 0
}

// SetDelay adds latency to every request.
func (b *Bank) SetDelay(d time.Duration) {
	b.mu.Lock()
	b.delay = d
	b.mu.Unlock()
}

// Counts returns the number of served read and write requests.
func (b *Bank) Counts() (reads, writes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads, b.writes
}

func (b *Bank) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	b.mu.Lock()
	delay := b.delay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if req.UnitId != b.unit {
		return nil, modbus.ErrGWTargetFailedToRespond
	}
	end := int(req.Addr) + int(req.Quantity)
	if req.Quantity == 0 || end > len(b.regs) {
		return nil, modbus.ErrIllegalDataAddress
	}

	if req.IsWrite {
		copy(b.regs[req.Addr:end], req.Args)
		b.writes++
		return nil, nil
	}

	out := make([]uint16, req.Quantity)
	copy(out, b.regs[req.Addr:end])
	b.reads++
	return out, nil
}

func (b *Bank) HandleInputRegisters(*modbus.InputRegistersRequest) ([]uint16, error) {
	return nil, modbus.ErrIllegalFunction
}

func (b *Bank) HandleCoils(*modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (b *Bank) HandleDiscreteInputs(*modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}
