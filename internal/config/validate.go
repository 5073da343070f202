// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// SERVER
	// ------------------------------------------------------------

	if cfg.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 0-65535", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeoutMs < 0 {
		return fmt.Errorf("server.write_timeout_ms must be >= 0, got %d", cfg.Server.WriteTimeoutMs)
	}
	if cfg.Server.ShutdownTimeoutMs < 0 {
		return fmt.Errorf("server.shutdown_timeout_ms must be >= 0, got %d", cfg.Server.ShutdownTimeoutMs)
	}

	// ------------------------------------------------------------
	// STREAM
	// ------------------------------------------------------------

	if cfg.Stream.IntervalMs <= 0 {
		return fmt.Errorf("stream.interval_ms must be > 0, got %d", cfg.Stream.IntervalMs)
	}

	// ------------------------------------------------------------
	// IMAGES
	// ------------------------------------------------------------

	if cfg.Images.Dir == "" {
		return fmt.Errorf("images.dir must not be empty")
	}
	switch cfg.Images.Rotation {
	case RotationSession, RotationShared, "":
	default:
		return fmt.Errorf("images.rotation %q: must be %q or %q", cfg.Images.Rotation, RotationSession, RotationShared)
	}
	for _, ext := range cfg.Images.Extensions {
		if ext == "" || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("images.extensions: invalid extension %q", ext)
		}
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	for i := 0; i < len(cfg.Mirror.DeviceName); i++ {
		if cfg.Mirror.DeviceName[i] > 0x7F {
			return fmt.Errorf("mirror.device_name must contain ASCII characters only")
		}
	}
	if cfg.Mirror.Modbus.Endpoint != "" && cfg.Mirror.Modbus.TimeoutMs < 0 {
		return fmt.Errorf("mirror.modbus.timeout_ms must be >= 0, got %d", cfg.Mirror.Modbus.TimeoutMs)
	}
	if cfg.Mirror.MQTT.Broker != "" {
		if cfg.Mirror.MQTT.Topic == "" {
			return fmt.Errorf("mirror.mqtt.topic is required when mirror.mqtt.broker is set")
		}
		if cfg.Mirror.MQTT.QoS > 2 {
			return fmt.Errorf("mirror.mqtt.qos %d: must be 0, 1 or 2", cfg.Mirror.MQTT.QoS)
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be \"text\" or \"json\"", cfg.Log.Format)
	}

	return nil
}
