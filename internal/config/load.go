// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file over Default(). An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with environment variables.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	num := func(key string, set func(int64)) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %s=%q: not an integer", key, v))
			return
		}
		set(n)
	}

	str("DRONE_HOST", &cfg.Server.Host)
	num("DRONE_PORT", func(n int64) { cfg.Server.Port = int(n) })
	str("DRONE_IMAGES_DIR", &cfg.Images.Dir)
	num("DRONE_INTERVAL_MS", func(n int64) { cfg.Stream.IntervalMs = int(n) })
	str("DRONE_ROTATION", &cfg.Images.Rotation)
	num("DRONE_SEED", func(n int64) { cfg.Stream.Seed = n })

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	str("MODBUS_ENDPOINT", &cfg.Mirror.Modbus.Endpoint)
	str("MQTT_BROKER", &cfg.Mirror.MQTT.Broker)
	str("MQTT_TOPIC", &cfg.Mirror.MQTT.Topic)

	return errors.Join(errs...)
}
