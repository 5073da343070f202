package mirror

import (
	"net"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	cfg "github.com/tamzrod/drone-streamer/internal/config"
)

func TestBuild_NothingConfigured(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	hub, closeAll, err := Build(cfg.Default().Mirror, logger, nil)
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}
	if hub.Enabled() {
		t.Fatalf("hub should be disabled without endpoints")
	}
	if err := closeAll(); err != nil {
		t.Fatalf("close err=%v", err)
	}
}

func TestBuild_UnreachableModbusFailsFast(t *testing.T) {
	// grab a free port and release it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	logger, _ := logtest.NewNullLogger()
	c := cfg.Default().Mirror
	c.Modbus.Endpoint = addr
	c.Modbus.TimeoutMs = 200

	if _, _, err := Build(c, logger, nil); err == nil {
		t.Fatalf("expected connect error for %s, got nil", addr)
	}
}
