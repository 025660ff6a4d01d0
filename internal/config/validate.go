// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Limits enforced by Validate.
const (
	MinTimeout  = 1 * time.Second
	MaxTimeout  = 60 * time.Second
	MinInterval = 5 * time.Second
	MaxInterval = 3600 * time.Second
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device
	if strings.TrimSpace(d.Host) == "" {
		return fmt.Errorf("device: host is required")
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("device: port %d out of range 1..65535", d.Port)
	}
	if d.UnitID < 1 || d.UnitID > 247 {
		return fmt.Errorf("device: unit_id %d out of range 1..247", d.UnitID)
	}
	if d.Timeout < MinTimeout || d.Timeout > MaxTimeout {
		return fmt.Errorf("device: timeout %s out of range %s..%s", d.Timeout, MinTimeout, MaxTimeout)
	}
	for i := 0; i < len(d.Name); i++ {
		if d.Name[i] > 0x7F {
			return fmt.Errorf("device: name must contain ASCII characters only")
		}
	}
	if d.WirelessSensors < 0 || d.WirelessSensors > 50 {
		return fmt.Errorf("device: wireless_sensors %d out of range 0..50", d.WirelessSensors)
	}
	if d.LeakLines < 0 || d.LeakLines > 4 {
		return fmt.Errorf("device: leak_lines %d out of range 0..4", d.LeakLines)
	}

	// ------------------------------------------------------------
	// MODBUS + POLL
	// ------------------------------------------------------------

	switch cfg.Modbus.Driver {
	case DriverGoburrow, DriverSimonvetter:
	default:
		return fmt.Errorf("modbus: unknown driver %q", cfg.Modbus.Driver)
	}

	if cfg.Poll.Interval < MinInterval || cfg.Poll.Interval > MaxInterval {
		return fmt.Errorf("poll: interval %s out of range %s..%s", cfg.Poll.Interval, MinInterval, MaxInterval)
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch cfg.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}

	// ------------------------------------------------------------
	// MQTT (opt-in)
	// ------------------------------------------------------------

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt: qos %d out of range 0..2", cfg.MQTT.QoS)
		}
		// Normalize trims spaces and slashes; check what survives
		p := strings.Trim(strings.TrimSpace(cfg.MQTT.TopicPrefix), "/")
		if p == "" {
			return fmt.Errorf("mqtt: topic_prefix is required")
		}
		if strings.ContainsAny(p, "#+") {
			return fmt.Errorf("mqtt: topic_prefix %q must not contain wildcards", p)
		}
	}

	// ------------------------------------------------------------
	// HISTORY (opt-in)
	// ------------------------------------------------------------

	if cfg.History.Path != "" && cfg.History.DedupTTL < 0 {
		return fmt.Errorf("history: dedup_ttl must be >= 0")
	}

	return nil
}
