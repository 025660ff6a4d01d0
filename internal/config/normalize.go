// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/google/uuid"
)

// DeviceNameMaxChars is the longest device name kept.
const DeviceNameMaxChars = 32

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Device.Host = strings.TrimSpace(cfg.Device.Host)

	// ASCII already validated
	name := strings.TrimSpace(cfg.Device.Name)
	if name == "" {
		name = "Neptun Smart " + cfg.Device.Host
	}
	if len(name) > DeviceNameMaxChars {
		name = name[:DeviceNameMaxChars]
	}
	cfg.Device.Name = name

	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	cfg.MQTT.TopicPrefix = strings.Trim(strings.TrimSpace(cfg.MQTT.TopicPrefix), "/")
	if cfg.MQTT.Broker != "" && cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "neptund-" + uuid.NewString()
	}
}
