// internal/config/config.go
package config

import "time"

type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Modbus  ModbusConfig  `yaml:"modbus"`
	Poll    PollConfig    `yaml:"poll"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	History HistoryConfig `yaml:"history"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Name    string        `yaml:"name"`
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	UnitID  int           `yaml:"unit_id"`
	Timeout time.Duration `yaml:"timeout"`

	// Accepted for compatibility with older configs; the counts are
	// detected from the device.
	WirelessSensors int `yaml:"wireless_sensors"`
	LeakLines       int `yaml:"leak_lines"`
}

// ---- MODBUS DRIVER ----

type ModbusConfig struct {
	Driver string `yaml:"driver"` // goburrow | simonvetter
}

// ---- POLL ----

type PollConfig struct {
	Interval                time.Duration `yaml:"interval"`
	IgnoreZeroCounterValues bool          `yaml:"ignore_zero_counter_values"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"` // empty disables
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         int    `yaml:"qos"`
}

// ---- HISTORY ----

type HistoryConfig struct {
	Path     string        `yaml:"path"` // empty disables
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

// Endpoint is the host:port of the controller.
func (d DeviceConfig) Endpoint() string {
	return joinHostPort(d.Host, d.Port)
}
