package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Port != DefaultPort || cfg.Server.Host != DefaultHost {
		t.Fatalf("expected defaults, got %+v", cfg.Server)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dronesim.yaml")
	body := `
server:
  port: 9000
stream:
  interval_ms: 250
  seed: 42
images:
  dir: /srv/frames
  rotation: shared
mirror:
  mqtt:
    broker: tcp://broker:1883
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.Host != DefaultHost {
		t.Fatalf("server: %+v", cfg.Server)
	}
	if cfg.Stream.Interval().Milliseconds() != 250 || cfg.Stream.Seed != 42 {
		t.Fatalf("stream: %+v", cfg.Stream)
	}
	if cfg.Images.Dir != "/srv/frames" || cfg.Images.Rotation != RotationShared {
		t.Fatalf("images: %+v", cfg.Images)
	}
	// untouched nested defaults survive
	if cfg.Mirror.MQTT.Topic != "drone/status" || cfg.Mirror.MQTT.Broker != "tcp://broker:1883" {
		t.Fatalf("mqtt: %+v", cfg.Mirror.MQTT)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file, got nil")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [port"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error, got nil")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DRONE_HOST":        "0.0.0.0",
		"DRONE_PORT":        "9100",
		"DRONE_INTERVAL_MS": "500",
		"DRONE_ROTATION":    "shared",
		"LOG_LEVEL":         "debug",
		"MQTT_BROKER":       "tcp://mq:1883",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv err=%v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9100 {
		t.Fatalf("server: %+v", cfg.Server)
	}
	if cfg.Stream.IntervalMs != 500 || cfg.Images.Rotation != RotationShared {
		t.Fatalf("stream/images: %+v %+v", cfg.Stream, cfg.Images)
	}
	if cfg.Log.Level != "debug" || cfg.Mirror.MQTT.Broker != "tcp://mq:1883" {
		t.Fatalf("log/mqtt: %+v %+v", cfg.Log, cfg.Mirror.MQTT)
	}
}

func TestApplyEnv_BadInteger(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "DRONE_PORT" {
			return "eighty", true
		}
		return "", false
	}

	cfg := Default()
	if err := ApplyEnv(&cfg, lookup); err == nil {
		t.Fatalf("expected error for non-integer port, got nil")
	}
	if cfg.Server.Port != DefaultPort {
		t.Fatalf("port changed on bad input: %d", cfg.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DRONESIM_TEST_DOTENV=loaded\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DRONESIM_TEST_DOTENV", "")
	os.Unsetenv("DRONESIM_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv err=%v", err)
	}
	if got := os.Getenv("DRONESIM_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("expected variable from .env, got %q", got)
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dronesim.yaml")
	body := `
server:
  port: 9000
stream:
  interval_ms: 250
images:
  dir: /srv/frames
  rotation: shared
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}

	env := map[string]string{
		"DRONE_PORT":     "9100",
		"DRONE_ROTATION": "session",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv err=%v", err)
	}

	if cfg.Server.Port != 9100 || cfg.Images.Rotation != RotationSession {
		t.Fatalf("env should win over file: port=%d rotation=%s", cfg.Server.Port, cfg.Images.Rotation)
	}
	// keys the environment does not set keep the file's value
	if cfg.Stream.IntervalMs != 250 || cfg.Images.Dir != "/srv/frames" {
		t.Fatalf("file values lost: %+v %+v", cfg.Stream, cfg.Images)
	}
}
