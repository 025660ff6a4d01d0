// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
	"time"
)

// helper to build a valid config quickly
func valid() *Config {
	cfg := Defaults()
	cfg.Device.Host = "192.168.1.20"
	return &cfg
}

// ---- tests ----

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
		want string
	}{
		{"host", func(c *Config) { c.Device.Host = " " }, "host"},
		{"port", func(c *Config) { c.Device.Port = 70000 }, "port"},
		{"unit zero", func(c *Config) { c.Device.UnitID = 0 }, "unit_id"},
		{"unit high", func(c *Config) { c.Device.UnitID = 248 }, "unit_id"},
		{"timeout low", func(c *Config) { c.Device.Timeout = 500 * time.Millisecond }, "timeout"},
		{"timeout high", func(c *Config) { c.Device.Timeout = 61 * time.Second }, "timeout"},
		{"interval low", func(c *Config) { c.Poll.Interval = 4 * time.Second }, "interval"},
		{"interval high", func(c *Config) { c.Poll.Interval = 3601 * time.Second }, "interval"},
		{"driver", func(c *Config) { c.Modbus.Driver = "rtu" }, "driver"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "format"},
		{"name", func(c *Config) { c.Device.Name = "Нептун" }, "ASCII"},
		{"wireless", func(c *Config) { c.Device.WirelessSensors = 51 }, "wireless_sensors"},
		{"leak lines", func(c *Config) { c.Device.LeakLines = 5 }, "leak_lines"},
		{"qos", func(c *Config) { c.MQTT.Broker = "tcp://b:1883"; c.MQTT.QoS = 3 }, "qos"},
		{"prefix", func(c *Config) { c.MQTT.Broker = "tcp://b:1883"; c.MQTT.TopicPrefix = "a/#" }, "wildcards"},
		{"prefix slash", func(c *Config) { c.MQTT.Broker = "tcp://b:1883"; c.MQTT.TopicPrefix = " / " }, "topic_prefix"},
		{"prefix slashes", func(c *Config) { c.MQTT.Broker = "tcp://b:1883"; c.MQTT.TopicPrefix = "//" }, "topic_prefix"},
	}

	for _, tc := range cases {
		cfg := valid()
		tc.mut(cfg)
		err := Validate(cfg)
		if err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestValidate_BoundsInclusive(t *testing.T) {
	cfg := valid()
	cfg.Device.Timeout = MinTimeout
	cfg.Poll.Interval = MaxInterval
	cfg.Device.UnitID = 247
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := valid()
	cfg.Device.Name = "  kitchen  "
	before := *cfg
	_ = Validate(cfg)
	if *cfg != before {
		t.Fatalf("Validate mutated config")
	}
}

func TestNormalize(t *testing.T) {
	cfg := valid()
	cfg.MQTT.Broker = "tcp://broker:1883"
	cfg.MQTT.TopicPrefix = "/home/neptun/"
	cfg.Log.Level = "DEBUG"

	Normalize(cfg)

	if cfg.Device.Name != "Neptun Smart 192.168.1.20" {
		t.Fatalf("name: got=%q", cfg.Device.Name)
	}
	if cfg.MQTT.TopicPrefix != "home/neptun" {
		t.Fatalf("prefix: got=%q", cfg.MQTT.TopicPrefix)
	}
	if !strings.HasPrefix(cfg.MQTT.ClientID, "neptund-") || len(cfg.MQTT.ClientID) != len("neptund-")+36 {
		t.Fatalf("client id: got=%q", cfg.MQTT.ClientID)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level: got=%q", cfg.Log.Level)
	}

	// explicit client id survives
	cfg.MQTT.ClientID = "mine"
	Normalize(cfg)
	if cfg.MQTT.ClientID != "mine" {
		t.Fatalf("client id overwritten: %q", cfg.MQTT.ClientID)
	}
}

func TestNormalize_TruncatesName(t *testing.T) {
	cfg := valid()
	cfg.Device.Name = strings.Repeat("x", 40)
	Normalize(cfg)
	if len(cfg.Device.Name) != DeviceNameMaxChars {
		t.Fatalf("name length: got=%d", len(cfg.Device.Name))
	}
}
