// internal/telemetry/generator.go
package telemetry

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// Generator draws independent uniform values for every field.
// A Generator is owned by one session and is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator builds a generator over src. A nil now defaults to time.Now.
func NewGenerator(src rand.Source, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rand.New(src), now: now}
}

// Generate returns a fresh record stamped with the current wall clock.
func (g *Generator) Generate() StatusRecord {
	return StatusRecord{
		Battery:     g.intn(BatteryMin, BatteryMax),
		Altitude:    round(g.uniform(AltitudeMin, AltitudeMax), AltitudeDecimals),
		Speed:       round(g.uniform(SpeedMin, SpeedMax), SpeedDecimals),
		Temperature: g.intn(TemperatureMin, TemperatureMax),
		GPSLat:      round(g.uniform(GPSLatMin, GPSLatMax), GPSDecimals),
		GPSLon:      round(g.uniform(GPSLonMin, GPSLonMax), GPSDecimals),
		Timestamp:   g.now().Unix(),
	}
}

// intn returns an int in [lo, hi].
func (g *Generator) intn(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// round keeps v inside the range it was drawn from: both bounds are
// representable at every precision used here.
func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// ---- FACTORY ----

// Factory hands out one Generator per session.
// With a non-zero seed the sequence of generators is reproducible.
type Factory struct {
	seed int64
	next atomic.Int64
	now  func() time.Time
}

// NewFactory returns a factory. seed == 0 derives seeds from the clock.
func NewFactory(seed int64, now func() time.Time) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{seed: seed, now: now}
}

// New returns a generator with its own source.
func (f *Factory) New() *Generator {
	n := f.next.Add(1)
	return NewGenerator(rand.NewSource(f.seed+n*7919), f.now)
}
