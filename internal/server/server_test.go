package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/tamzrod/drone-streamer/internal/imagery"
	"github.com/tamzrod/drone-streamer/internal/metrics"
	"github.com/tamzrod/drone-streamer/internal/session"
	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// ---- harness ----

type running struct {
	srv    *Server
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func imageDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func start(t *testing.T, cfg Config, dir string) *running {
	t.Helper()

	cat, err := imagery.Discover(dir, nil)
	if err != nil {
		t.Fatalf("Discover err=%v", err)
	}

	logger, _ := logtest.NewNullLogger()
	cfg.Addr = "127.0.0.1:0"
	if cfg.Interval == 0 {
		cfg.Interval = 50 * time.Millisecond
	}

	srv, err := New(cfg, Deps{
		Catalog:    cat,
		Generators: telemetry.NewFactory(1, nil),
		Log:        logger,
		Metrics:    metrics.New(),
	})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}

	ln, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{srv: srv, addr: ln.Addr().String(), cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return r
}

func dial(t *testing.T, addr string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func next(t *testing.T, c *websocket.Conn) session.Message {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(1500 * time.Millisecond))
	var m session.Message
	if err := c.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func nextImage(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	for i := 0; i < 4; i++ {
		m := next(t, c)
		if m.Type != session.TypeImage {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(m.Data.(string))
		if err != nil {
			t.Fatalf("image not base64: %v", err)
		}
		return string(raw)
	}
	t.Fatalf("no image message received")
	return ""
}

// ---- tests ----

func TestServer_EndToEndStatusWithinDeadline(t *testing.T) {
	r := start(t, Config{Interval: time.Second}, t.TempDir())

	began := time.Now()
	c := dial(t, r.addr)
	defer c.Close()

	m := next(t, c)
	if time.Since(began) > 1500*time.Millisecond {
		t.Fatalf("status arrived after %s", time.Since(began))
	}
	if m.Type != session.TypeStatus {
		t.Fatalf("expected status, got %s", m.Type)
	}

	raw, _ := json.Marshal(m.Data)
	var rec telemetry.StatusRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if rec.Battery < 20 || rec.Battery > 100 {
		t.Fatalf("battery out of range: %d", rec.Battery)
	}
	if now := time.Now().Unix(); rec.Timestamp < now-5 || rec.Timestamp > now+5 {
		t.Fatalf("timestamp %d not within 5s of wall clock %d", rec.Timestamp, now)
	}
}

func TestServer_PerSessionRotationStartsAtFirstImage(t *testing.T) {
	dir := imageDir(t, map[string]string{"a.jpg": "A", "b.jpg": "B", "c.jpg": "C"})
	r := start(t, Config{}, dir)

	first := dial(t, r.addr)
	defer first.Close()
	for _, want := range []string{"A", "B", "C", "A"} {
		if got := nextImage(t, first); got != want {
			t.Fatalf("first client: got=%s want=%s", got, want)
		}
	}

	// an independent cycler: the second client starts over
	second := dial(t, r.addr)
	defer second.Close()
	if got := nextImage(t, second); got != "A" {
		t.Fatalf("second client: got=%s want=A", got)
	}
}

func TestServer_SharedRotationIsGlobal(t *testing.T) {
	dir := imageDir(t, map[string]string{"a.jpg": "A", "b.jpg": "B"})
	r := start(t, Config{SharedRotation: true, Interval: time.Hour}, dir)

	one := dial(t, r.addr)
	defer one.Close()
	if got := nextImage(t, one); got != "A" {
		t.Fatalf("first client: got=%s want=A", got)
	}

	two := dial(t, r.addr)
	defer two.Close()
	if got := nextImage(t, two); got != "B" {
		t.Fatalf("second client: got=%s want=B", got)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	r := start(t, Config{}, t.TempDir())

	resp, err := http.Get("http://" + r.addr + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz: status=%d body=%q", resp.StatusCode, body)
	}

	c := dial(t, r.addr)
	next(t, c)
	c.Close()

	resp, err = http.Get("http://" + r.addr + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "dronesim_sessions_total 1") {
		t.Fatalf("metrics missing session counter:\n%s", body)
	}
}

func TestServer_PlainHTTPOnStreamPathRejected(t *testing.T) {
	r := start(t, Config{}, t.TempDir())

	resp, err := http.Get("http://" + r.addr + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-upgrade request, got %d", resp.StatusCode)
	}
}

func TestServer_ShutdownClosesSessions(t *testing.T) {
	r := start(t, Config{}, t.TempDir())

	c := dial(t, r.addr)
	defer c.Close()
	next(t, c)

	r.cancel()

	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	var closeErr *websocket.CloseError
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !errors.As(err, &closeErr) {
				t.Fatalf("expected close frame, got %v", err)
			}
			break
		}
	}
	if closeErr.Code != websocket.CloseGoingAway {
		t.Fatalf("close code: got=%d want=%d", closeErr.Code, websocket.CloseGoingAway)
	}

	select {
	case err := <-r.done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
	r.done <- nil // for cleanup

	if n := r.srv.ActiveSessions(); n != 0 {
		t.Fatalf("expected 0 active sessions, got %d", n)
	}
	if _, err := net.DialTimeout("tcp", r.addr, 200*time.Millisecond); err == nil {
		t.Fatalf("listener still accepting after shutdown")
	}
}

func TestServer_ListenFailsWhenPortTaken(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	srv, err := New(Config{Addr: busy.Addr().String(), Interval: time.Second}, Deps{
		Catalog:    imagery.NewCatalog(nil),
		Generators: telemetry.NewFactory(1, nil),
	})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if _, err := srv.Listen(); err == nil {
		t.Fatalf("expected bind error, got nil")
	}
}

func TestNew_Validation(t *testing.T) {
	cat := imagery.NewCatalog(nil)
	gens := telemetry.NewFactory(1, nil)

	if _, err := New(Config{}, Deps{Catalog: cat, Generators: gens}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New(Config{Interval: time.Second}, Deps{Generators: gens}); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
	if _, err := New(Config{Interval: time.Second}, Deps{Catalog: cat}); err == nil {
		t.Fatalf("expected error for missing generators")
	}
}
