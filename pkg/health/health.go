// Package health turns a plugin's liveness and readiness into healthcheck
// handlers and adds a flight-loop heartbeat.
package health

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/plugin-xplm/api"
	internal "github.com/srediag/plugin-xplm/internal/health"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/registry"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

// ErrNoHeartbeat is reported before the first beat.
var ErrNoHeartbeat = errors.New("health: no heartbeat yet")

// Options adds optional checks to the handler.
type Options struct {
	// MaxGoroutines fails liveness above this count. 0 disables the check.
	MaxGoroutines int
	// MaxRSS fails readiness above this many resident bytes. 0 disables it.
	MaxRSS uint64
	// Heartbeat fails readiness when the host stopped running flight loops.
	Heartbeat *Heartbeat
	// HeartbeatAge is how old the last beat may be. Defaults to 5s.
	HeartbeatAge time.Duration
}

// NewHandler returns a handler serving /live and /ready for h. Check results
// are exported to reg under the xplm namespace when reg is not nil.
func NewHandler(h api.Health, reg prometheus.Registerer, opts Options) healthcheck.Handler {
	var handler healthcheck.Handler
	if reg != nil {
		handler = healthcheck.NewMetricsHandler(reg, "xplm")
	} else {
		handler = healthcheck.NewHandler()
	}
	handler.AddLivenessCheck("plugin", h.LivenessCheck)
	handler.AddReadinessCheck("plugin", h.ReadinessCheck)
	if opts.MaxGoroutines > 0 {
		handler.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(opts.MaxGoroutines))
	}
	if opts.MaxRSS > 0 {
		handler.AddReadinessCheck("rss", healthcheck.Async(internal.RSSCheck(opts.MaxRSS), 10*time.Second))
	}
	if opts.Heartbeat != nil {
		age := opts.HeartbeatAge
		if age <= 0 {
			age = 5 * time.Second
		}
		handler.AddReadinessCheck("heartbeat", opts.Heartbeat.Check(age))
	}
	return handler
}

// Heartbeat records the wall time of the last flight loop it ran in.
type Heartbeat struct {
	loop  *registry.FlightLoop
	last  atomic.Int64
	beats atomic.Uint64
}

// StartHeartbeat creates a flight loop beating every interval. It dies with
// the session.
func StartHeartbeat(ctx *xplm.Context, interval time.Duration) *Heartbeat {
	hb := &Heartbeat{}
	hb.loop = ctx.Every("heartbeat", interval, func(*gate.Token) bool {
		hb.beat(time.Now())
		return true
	})
	return hb
}

func (hb *Heartbeat) beat(now time.Time) {
	hb.last.Store(now.UnixNano())
	hb.beats.Add(1)
}

// Beats returns how many beats were recorded.
func (hb *Heartbeat) Beats() uint64 {
	return hb.beats.Load()
}

// Last returns the time of the last beat, zero before the first.
func (hb *Heartbeat) Last() time.Time {
	n := hb.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Check fails when the last beat is older than maxAge.
func (hb *Heartbeat) Check(maxAge time.Duration) healthcheck.Check {
	return func() error {
		last := hb.Last()
		if last.IsZero() {
			return ErrNoHeartbeat
		}
		if age := time.Since(last); age > maxAge {
			return fmt.Errorf("health: last heartbeat %v ago", age.Round(time.Millisecond))
		}
		return nil
	}
}

// Stop removes the heartbeat's flight loop.
func (hb *Heartbeat) Stop(s gate.Scope) {
	hb.loop.Release(s)
}
