// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Images.Rotation == "" {
		cfg.Images.Rotation = RotationSession
	}

	// Extensions are matched with a leading dot, lower-case.
	for i, ext := range cfg.Images.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Images.Extensions[i] = ext
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	// Truncate device name to the register block capacity.
	if len(cfg.Mirror.DeviceName) > 16 {
		cfg.Mirror.DeviceName = cfg.Mirror.DeviceName[:16]
	}
}
