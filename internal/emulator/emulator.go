// internal/emulator/emulator.go
package emulator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// Config is the runtime config of one emulated controller.
type Config struct {
	Listen  string // host:port
	UnitID  uint8
	Timeout time.Duration
}

// Emulator serves a Bank over Modbus/TCP.
type Emulator struct {
	cfg    Config
	bank   *Bank
	server *modbus.ModbusServer
}

// New prepares the server. Nothing listens until Start.
func New(cfg Config) (*Emulator, error) {
	if cfg.Listen == "" {
		return nil, errors.New("emulator: listen address required")
	}
	if cfg.UnitID == 0 {
		cfg.UnitID = 240
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	bank := NewBank(cfg.UnitID)

	url := cfg.Listen
	if !strings.Contains(url, "://") {
		url = "tcp://" + url
	}
	srv, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        url,
		Timeout:    cfg.Timeout,
		MaxClients: 8,
	}, bank)
	if err != nil {
		return nil, fmt.Errorf("emulator: %w", err)
	}

	return &Emulator{cfg: cfg, bank: bank, server: srv}, nil
}

func (e *Emulator) Start() error {
	if err := e.server.Start(); err != nil {
		return fmt.Errorf("emulator: listen %s: %w", e.cfg.Listen, err)
	}
	return nil
}

func (e *Emulator) Stop() error {
	return e.server.Stop()
}

// Bank exposes the register memory.
func (e *Emulator) Bank() *Bank {
	return e.bank
}

// Endpoint is the host:port clients dial.
func (e *Emulator) Endpoint() string {
	return e.cfg.Listen
}

// Seed loads a plausible installation: single-zone mode with both zones
// open, three wireless sensors, two wired lines, counters 1 and 2 enabled.
func Seed(b *Bank) {
	b.Set(registers.AlarmMode, registers.MaskZoneBoth)
	b.Set(registers.LineConfig12, 1<<registers.LineGroupShift(1)|1<<registers.LineGroupShift(2))
	b.Set(registers.RelayConfig, 0x0003)
	b.Set(registers.ModbusConfig, 240<<8|4)
	b.Set(registers.WirelessSensorCount, 3)

	for i := 1; i <= 3; i++ {
		b.Set(registers.WirelessParamsAddress(i), 1)
		// battery 90%, signal level 4
		b.Set(registers.WirelessSensorsStart+uint16(i-1), 90<<8|4<<3)
	}

	for i := 1; i <= 2; i++ {
		b.Set(registers.CounterSettingsAddress(i), 1<<8|registers.BitCounterEnabled)
	}
	// counter 1: 123.456 m3, counter 2: 7.5 m3
	b.Set(registers.WaterCounterAddress(1), 0x0001)
	b.Set(registers.WaterCounterAddress(1)+1, 0xE240)
	b.Set(registers.WaterCounterAddress(2), 0)
	b.Set(registers.WaterCounterAddress(2)+1, 7500)
}
