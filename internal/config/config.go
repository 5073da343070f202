// internal/config/config.go
package config

import "time"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	Images  ImagesConfig  `yaml:"images"`
	Metrics MetricsConfig `yaml:"metrics"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	Log     LogConfig     `yaml:"log"`
}

// ---- SERVER ----

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// WriteTimeoutMs bounds each frame write. 0 disables the deadline.
	WriteTimeoutMs    int `yaml:"write_timeout_ms"`
	ShutdownTimeoutMs int `yaml:"shutdown_timeout_ms"`
}

// ---- STREAM ----

type StreamConfig struct {
	IntervalMs int `yaml:"interval_ms"`

	// Seed for the status generators. 0 means time-based.
	Seed int64 `yaml:"seed"`
}

// ---- IMAGES ----

const (
	RotationSession = "session"
	RotationShared  = "shared"
)

type ImagesConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	Rotation   string   `yaml:"rotation"` // "session" | "shared"
}

// ---- METRICS ----

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ---- MIRROR (opt-in) ----

type MirrorConfig struct {
	DeviceName string             `yaml:"device_name"`
	Modbus     ModbusMirrorConfig `yaml:"modbus"`
	MQTT       MQTTMirrorConfig   `yaml:"mqtt"`
}

type ModbusMirrorConfig struct {
	Endpoint  string `yaml:"endpoint"` // empty disables
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type MQTTMirrorConfig struct {
	Broker   string `yaml:"broker"` // empty disables
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" | "json"
}

// ---- DEFAULTS ----

const (
	DefaultHost = "localhost"
	DefaultPort = 8765
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              DefaultHost,
			Port:              DefaultPort,
			WriteTimeoutMs:    10_000,
			ShutdownTimeoutMs: 5_000,
		},
		Stream: StreamConfig{
			IntervalMs: 1_000,
		},
		Images: ImagesConfig{
			Dir:        "images",
			Extensions: []string{".jpg", ".png"},
			Rotation:   RotationSession,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Mirror: MirrorConfig{
			DeviceName: "DRONE-SIM",
			Modbus: ModbusMirrorConfig{
				UnitID:    1,
				TimeoutMs: 1_000,
			},
			MQTT: MQTTMirrorConfig{
				ClientID: "dronesim",
				Topic:    "drone/status",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ---- DERIVED ----

// BindHost is loopback when the host is left at its default and all
// interfaces otherwise.
func (s ServerConfig) BindHost() string {
	if s.Host == DefaultHost {
		return DefaultHost
	}
	return "0.0.0.0"
}

func (s StreamConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutMs) * time.Millisecond
}
