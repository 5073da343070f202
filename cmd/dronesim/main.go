// cmd/dronesim/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/tamzrod/drone-streamer/internal/config"
	"github.com/tamzrod/drone-streamer/internal/imagery"
	"github.com/tamzrod/drone-streamer/internal/logging"
	"github.com/tamzrod/drone-streamer/internal/metrics"
	"github.com/tamzrod/drone-streamer/internal/mirror"
	"github.com/tamzrod/drone-streamer/internal/server"
	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "dronesim: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// --------------------
	// Flags
	// --------------------

	fs := pflag.NewFlagSet("dronesim", pflag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to YAML configuration file (optional)")
	envPath := fs.String("env-file", ".env", "dotenv file loaded before reading the environment")
	host := fs.String("host", config.DefaultHost, "host to announce; anything but localhost binds all interfaces")
	port := fs.Int("port", config.DefaultPort, "port to bind")
	images := fs.String("images", "images", "directory of .jpg/.png files to stream")
	interval := fs.Duration("interval", 0, "delay between ticks (default 1s)")
	rotation := fs.String("rotation", "", "image rotation: session (per client) or shared (global)")
	seed := fs.Int64("seed", 0, "seed for synthetic telemetry (0 = time based)")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println("dronesim", version)
		return nil
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(*envPath); err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, nil); err != nil {
		return err
	}

	// explicit flags win over file and environment
	if fs.Changed("host") {
		cfg.Server.Host = *host
	}
	if fs.Changed("port") {
		cfg.Server.Port = *port
	}
	if fs.Changed("images") {
		cfg.Images.Dir = *images
	}
	if fs.Changed("interval") {
		ms, err := intervalMs(*interval)
		if err != nil {
			return err
		}
		cfg.Stream.IntervalMs = ms
	}
	if fs.Changed("rotation") {
		cfg.Images.Rotation = *rotation
	}
	if fs.Changed("seed") {
		cfg.Stream.Seed = *seed
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}

	if err := config.Validate(&cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(&cfg)

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	// --------------------
	// Images
	// --------------------

	if err := os.MkdirAll(cfg.Images.Dir, 0o755); err != nil {
		return fmt.Errorf("create images dir: %w", err)
	}
	catalog, err := imagery.Discover(cfg.Images.Dir, cfg.Images.Extensions)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"dir":      cfg.Images.Dir,
		"count":    catalog.Len(),
		"rotation": cfg.Images.Rotation,
	}).Info("images discovered")

	// --------------------
	// Metrics + mirror
	// --------------------

	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New()
		met.SetCatalogSize(catalog.Len())
	}

	hub, closeMirror, err := mirror.Build(cfg.Mirror, log, met)
	if err != nil {
		return fmt.Errorf("status mirror: %w", err)
	}
	defer func() {
		if err := closeMirror(); err != nil {
			log.WithError(err).Warn("status mirror close failed")
		}
	}()

	// --------------------
	// Server
	// --------------------

	bind := net.JoinHostPort(cfg.Server.BindHost(), strconv.Itoa(cfg.Server.Port))

	srv, err := server.New(server.Config{
		Addr:            bind,
		Interval:        cfg.Stream.Interval(),
		WriteTimeout:    cfg.Server.WriteTimeout(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
		SharedRotation:  cfg.Images.Rotation == config.RotationShared,
	}, server.Deps{
		Catalog:    catalog,
		Generators: telemetry.NewFactory(cfg.Stream.Seed, nil),
		Log:        log,
		Metrics:    met,
		Mirror:     hub,
	})
	if err != nil {
		return err
	}

	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	log.Infof("Starting drone server on %s (binding to %s)", announceURL(cfg.Server.Host, ln.Addr()), ln.Addr())

	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	log.Info("drone server stopped")
	return nil
}

// intervalMs converts --interval to the config's millisecond field.
func intervalMs(d time.Duration) (int, error) {
	if d < time.Millisecond {
		return 0, fmt.Errorf("--interval %s: must be at least 1ms", d)
	}
	return int(d.Milliseconds()), nil
}

// announceURL is the client URL for host on the port actually bound,
// which differs from the configured one when port 0 was requested.
func announceURL(host string, bound net.Addr) string {
	port := ""
	if _, p, err := net.SplitHostPort(bound.String()); err == nil {
		port = p
	}
	return "ws://" + net.JoinHostPort(host, port)
}
