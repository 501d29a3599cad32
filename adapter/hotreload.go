// Package adapter connects a plugin's lifecycle shim to systems outside the
// simulator: health checkers, metrics scrapers, tracing backends and reload tooling.
package adapter

import (
	"errors"
	"sync"

	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/pkg/host"
)

var (
	// ErrReloadFailed is returned when the plugin did not start again.
	ErrReloadFailed = errors.New("adapter: reload failed, plugin left stopped")
	// ErrNotEnabled is returned when the plugin started but refused to enable.
	ErrNotEnabled = errors.New("adapter: plugin started but did not enable")
)

// Runner runs fn on the host thread and waits for it.
type Runner func(fn func())

// Reloader stops and restarts a plugin in place, the way the simulator's
// plugin admin does.
type Reloader struct {
	lc  api.Lifecycle
	run Runner

	mu      sync.Mutex
	desc    host.Descriptor
	reloads int
}

// NewReloader returns a reloader for lc. run must execute on the host thread.
func NewReloader(lc api.Lifecycle, run Runner) *Reloader {
	return &Reloader{lc: lc, run: run}
}

// Reload stops the plugin, starts a new session and enables it.
func (r *Reloader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var started, enabled bool
	r.run(func() {
		r.lc.Stop()
		started = r.lc.Start(&r.desc)
		if started {
			enabled = r.lc.Enable()
		}
	})
	r.reloads++
	switch {
	case !started:
		return ErrReloadFailed
	case !enabled:
		return ErrNotEnabled
	}
	return nil
}

// Reloads returns how many reloads were attempted.
func (r *Reloader) Reloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads
}

// Descriptor returns what the plugin reported at its last start.
func (r *Reloader) Descriptor() host.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.desc
}
