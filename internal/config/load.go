// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Driver names.
const (
	DriverGoburrow    = "goburrow"
	DriverSimonvetter = "simonvetter"
)

// Defaults returns a config with every optional value filled in.
func Defaults() Config {
	return Config{
		Device: DeviceConfig{
			Port:    503,
			UnitID:  240,
			Timeout: 5 * time.Second,
		},
		Modbus: ModbusConfig{Driver: DriverGoburrow},
		Poll:   PollConfig{Interval: 30 * time.Second},
		Log:    LogConfig{Level: "info", Format: "console"},
		HTTP:   HTTPConfig{Listen: ":8080"},
		MQTT:   MQTTConfig{TopicPrefix: "neptun", QoS: 1},
		History: HistoryConfig{
			DedupTTL: time.Hour,
		},
	}
}

// Load reads the YAML file at path over Defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes over Defaults.
func Parse(b []byte) (*Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
