// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/drone-streamer/internal/imagery"
	"github.com/tamzrod/drone-streamer/internal/metrics"
	"github.com/tamzrod/drone-streamer/internal/mirror"
	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// Conn is the subset of *websocket.Conn a session uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	NextReader() (messageType int, r io.Reader, err error)
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

// Config is the minimal runtime config a session needs.
type Config struct {
	Interval time.Duration

	// WriteTimeout bounds each frame write. 0 disables the deadline.
	WriteTimeout time.Duration
}

// Deps are the collaborators bound to one session.
// Generator and Images are required; the rest may be nil.
type Deps struct {
	ID        string
	Generator *telemetry.Generator
	Images    imagery.Source
	Log       logrus.FieldLogger
	Metrics   *metrics.Metrics
	Mirror    *mirror.Hub
}

// Outcome describes how a session reached its terminal state.
type Outcome struct {
	Reason string // metrics.ReasonClosed | ReasonError | ReasonShutdown
	Err    error
}

// closeGrace bounds the wait for the client's close reply on shutdown.
const closeGrace = time.Second

// Session owns one client connection: status + optional image per tick.
type Session struct {
	id     string
	conn   Conn
	cfg    Config
	gen    *telemetry.Generator
	images imagery.Source
	log    logrus.FieldLogger
	met    *metrics.Metrics
	mirror *mirror.Hub
}

// New binds a session to conn.
func New(conn Conn, cfg Config, d Deps) (*Session, error) {
	if conn == nil {
		return nil, errors.New("session: connection required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("session: interval must be > 0")
	}
	if d.Generator == nil {
		return nil, errors.New("session: status generator required")
	}
	if d.Images == nil {
		return nil, errors.New("session: image source required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}

	return &Session{
		id:     d.ID,
		conn:   conn,
		cfg:    cfg,
		gen:    d.Generator,
		images: d.Images,
		log:    d.Log.WithField("session", d.ID),
		met:    d.Metrics,
		mirror: d.Mirror,
	}, nil
}

func (s *Session) ID() string { return s.id }

// Run ticks until the client goes away, a send fails, or ctx is done.
// It closes the connection before returning and logs exactly one
// terminal line.
func (s *Session) Run(ctx context.Context) Outcome {
	defer s.conn.Close()

	remote := remoteString(s.conn)
	s.log = s.log.WithField("remote", remote)
	s.log.Info("client connected")
	s.met.SessionStarted()

	readErr := make(chan error, 1)
	go s.readLoop(readErr)

	timer := time.NewTimer(s.cfg.Interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var out Outcome
	for {
		if err := s.Tick(); err != nil {
			out = classify(err)
			break
		}

		timer.Reset(s.cfg.Interval)

		select {
		case <-ctx.Done():
			s.goingAway(readErr)
			out = Outcome{Reason: metrics.ReasonShutdown}
		case err := <-readErr:
			out = classify(err)
		case <-timer.C:
			continue
		}
		break
	}

	s.finish(out)
	return out
}

// Tick sends one status message and, when available, one image message.
func (s *Session) Tick() error {
	rec := s.gen.Generate()
	if err := s.send(TypeStatus, rec); err != nil {
		return err
	}
	s.mirror.Offer(rec)

	data, ok := s.images.Next()
	if !ok {
		return nil
	}
	return s.send(TypeImage, data)
}

func (s *Session) send(msgType string, data any) error {
	frame, err := Encode(msgType, data)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", msgType, err)
	}

	if s.cfg.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return fmt.Errorf("session: set write deadline: %w", err)
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("session: send %s: %w", msgType, err)
	}

	s.met.MessageSent(msgType, len(frame))
	return nil
}

// readLoop discards client frames so control frames (ping, close) are
// processed. The protocol is server-push only.
func (s *Session) readLoop(errc chan<- error) {
	for {
		_, r, err := s.conn.NextReader()
		if err != nil {
			errc <- err
			return
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			errc <- err
			return
		}
	}
}

// goingAway starts the close handshake and waits briefly for the reply.
func (s *Session) goingAway(readErr <-chan error) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace)); err != nil {
		return
	}

	select {
	case <-readErr:
	case <-time.After(closeGrace):
	}
}

func (s *Session) finish(out Outcome) {
	s.met.SessionEnded(out.Reason)

	entry := s.log.WithField("outcome", out.Reason)
	switch out.Reason {
	case metrics.ReasonClosed:
		entry.Info("client disconnected")
	case metrics.ReasonShutdown:
		entry.Info("session closed: server shutting down")
	default:
		entry.WithError(out.Err).Error("session ended with error")
	}
}

func classify(err error) Outcome {
	if isConnectionClosed(err) {
		return Outcome{Reason: metrics.ReasonClosed, Err: err}
	}
	return Outcome{Reason: metrics.ReasonError, Err: err}
}

func remoteString(c Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
