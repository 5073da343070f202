// internal/mirror/hub.go
package mirror

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// Sink receives mirrored status records.
type Sink interface {
	Name() string
	Publish(r telemetry.StatusRecord) error
}

// FailureRecorder is notified of failed deliveries. May be nil.
type FailureRecorder interface {
	MirrorFailed(sink string)
}

// Hub decouples sessions from slow sinks.
// Offer never blocks; only the most recent record is kept.
type Hub struct {
	sinks []Sink
	log   logrus.FieldLogger
	fails FailureRecorder

	latest chan telemetry.StatusRecord
}

// NewHub returns a hub over sinks. A hub without sinks discards everything.
func NewHub(sinks []Sink, log logrus.FieldLogger, fails FailureRecorder) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		sinks:  sinks,
		log:    log,
		fails:  fails,
		latest: make(chan telemetry.StatusRecord, 1),
	}
}

// Enabled reports whether any sink is attached.
func (h *Hub) Enabled() bool {
	return h != nil && len(h.sinks) > 0
}

// Offer queues r for delivery, replacing any undelivered record.
func (h *Hub) Offer(r telemetry.StatusRecord) {
	if !h.Enabled() {
		return
	}
	for {
		select {
		case h.latest <- r:
			return
		default:
		}
		// drop the stale record and try again
		select {
		case <-h.latest:
		default:
		}
	}
}

// Run delivers offered records until ctx is done.
// One goroutine. No retries: a failed record is dropped.
func (h *Hub) Run(ctx context.Context) {
	if !h.Enabled() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-h.latest:
			h.deliver(r)
		}
	}
}

func (h *Hub) deliver(r telemetry.StatusRecord) {
	for _, s := range h.sinks {
		if err := s.Publish(r); err != nil {
			h.log.WithError(err).WithField("sink", s.Name()).Warn("status mirror delivery failed")
			if h.fails != nil {
				h.fails.MirrorFailed(s.Name())
			}
		}
	}
}
