// internal/config/env.go
package config

import (
	"fmt"
	"strconv"
	"time"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg from NEPTUN_* variables.
// A malformed value is an error; absent or empty variables are ignored.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if cfg == nil || lookup == nil {
		return nil
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s=%q: %w", key, v, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env %s=%q: %w", key, v, err)
		}
		*dst = d
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env %s=%q: %w", key, v, err)
		}
		*dst = b
		return nil
	}

	str("NEPTUN_NAME", &cfg.Device.Name)
	str("NEPTUN_HOST", &cfg.Device.Host)
	str("NEPTUN_DRIVER", &cfg.Modbus.Driver)
	str("NEPTUN_LOG_LEVEL", &cfg.Log.Level)
	str("NEPTUN_LOG_FORMAT", &cfg.Log.Format)
	str("NEPTUN_HTTP_LISTEN", &cfg.HTTP.Listen)
	str("NEPTUN_MQTT_BROKER", &cfg.MQTT.Broker)
	str("NEPTUN_MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	str("NEPTUN_MQTT_TOPIC_PREFIX", &cfg.MQTT.TopicPrefix)
	str("NEPTUN_MQTT_USERNAME", &cfg.MQTT.Username)
	str("NEPTUN_MQTT_PASSWORD", &cfg.MQTT.Password)
	str("NEPTUN_HISTORY_PATH", &cfg.History.Path)

	for _, err := range []error{
		num("NEPTUN_PORT", &cfg.Device.Port),
		num("NEPTUN_UNIT_ID", &cfg.Device.UnitID),
		num("NEPTUN_MQTT_QOS", &cfg.MQTT.QoS),
		dur("NEPTUN_TIMEOUT", &cfg.Device.Timeout),
		dur("NEPTUN_POLL_INTERVAL", &cfg.Poll.Interval),
		dur("NEPTUN_HISTORY_DEDUP_TTL", &cfg.History.DedupTTL),
		flag("NEPTUN_IGNORE_ZERO_COUNTERS", &cfg.Poll.IgnoreZeroCounterValues),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
