/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package registry wraps raw host identifiers in typed handles owned by the
// plugin session that acquired them.
//
// Every operation takes a gate.Scope and validates it first. Handles die with
// their registry: after Close, or after an explicit Release, any use is a
// contract violation rather than an error.
package registry

import (
	"context"
	"sort"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

const meterName = "github.com/srediag/plugin-xplm/pkg/registry"

// Kind is the type of resource behind a handle.
type Kind int

const (
	KindDataRef Kind = iota
	KindOwnedDataRef
	KindCommand
	KindOwnedCommand
	KindCommandHandler
	KindMenu
	KindMenuItem
	KindFlightLoop
	KindSharedData
)

var kindNames = [...]string{
	KindDataRef:        "dataref",
	KindOwnedDataRef:   "owned dataref",
	KindCommand:        "command",
	KindOwnedCommand:   "owned command",
	KindCommandHandler: "command handler",
	KindMenu:           "menu",
	KindMenuItem:       "menu item",
	KindFlightLoop:     "flight loop",
	KindSharedData:     "shared data",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ID identifies a handle within one registry.
type ID uint64

type entry struct {
	kind    Kind
	name    string
	obj     any
	release func()
}

// Options configures a Registry.
type Options struct {
	Logger *logging.Logger
	// Meter exports the live handle count. Defaults to a noop meter.
	Meter metric.Meter
	// OnPanic is told about a panic recovered from a plugin callback. The
	// registry stops delivering callbacks once it has fired.
	OnPanic func(callback string, r any)
}

// Registry owns every handle acquired during one plugin session.
type Registry struct {
	host    host.Host
	gate    *gate.Gate
	log     *logging.Logger
	entries cmap.ConcurrentMap[ID, *entry]
	next    atomic.Uint64
	gen     atomic.Uint64
	closed  atomic.Bool
	halted  atomic.Bool
	onPanic func(string, any)
	live    metric.Int64UpDownCounter
}

// New creates an empty registry bound to a host and the gate guarding it.
func New(h host.Host, g *gate.Gate, opts Options) *Registry {
	lg := opts.Logger
	if lg == nil {
		lg = logging.New("registry", h)
	}
	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}
	live, err := meter.Int64UpDownCounter("xplm.registry.handles",
		metric.WithDescription("Handles currently held by the plugin session."))
	if err != nil {
		lg.Warnf("handle counter unavailable: %v", err)
		live, _ = noop.NewMeterProvider().Meter(meterName).Int64UpDownCounter("xplm.registry.handles")
	}
	r := &Registry{
		host: h,
		gate: g,
		log:  lg,
		entries: cmap.NewWithCustomShardingFunction[ID, *entry](func(id ID) uint32 {
			return uint32(id) ^ uint32(id>>32)
		}),
		live:    live,
		onPanic: opts.OnPanic,
	}
	r.gen.Store(1)
	return r
}

// Host returns the host the registry talks to.
func (r *Registry) Host() host.Host { return r.host }

// Gate returns the gate guarding the registry.
func (r *Registry) Gate() *gate.Gate { return r.gate }

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return r.entries.Count()
}

// Live returns the number of live handles of one kind.
func (r *Registry) Live(kind Kind) int {
	n := 0
	for item := range r.entries.IterBuffered() {
		if item.Val.kind == kind {
			n++
		}
	}
	return n
}

// Closed reports whether Close has run.
func (r *Registry) Closed() bool {
	return r.closed.Load()
}

// Halt stops callback delivery to plugin code. Handles stay valid so the
// session can still be closed.
func (r *Registry) Halt() {
	r.halted.Store(true)
}

// Halted reports whether callbacks are being dropped.
func (r *Registry) Halted() bool {
	return r.halted.Load()
}

// invoke runs a host-originated callback inside a gate window. Panics stop at
// this frame: the host cannot unwind Go stacks.
func (r *Registry) invoke(name string, fn func(tok *gate.Token)) (ok bool) {
	if r.halted.Load() || r.closed.Load() {
		return false
	}
	defer func() {
		if p := recover(); p != nil {
			ok = false
			r.halted.Store(true)
			r.log.Errorf("callback %s panicked, plugin halted: %v", name, p)
			if r.onPanic != nil {
				r.onPanic(name, p)
			}
		}
	}()
	r.gate.Enter(name, fn)
	return true
}

func (r *Registry) require(s gate.Scope, op string) {
	gate.Require(s, op)
	if r.closed.Load() {
		r.gate.Violate(op, "registry used after its plugin session stopped")
	}
}

// handle is embedded in every typed handle.
type handle struct {
	reg  *Registry
	id   ID
	gen  uint64
	kind Kind
	name string
}

func (r *Registry) add(kind Kind, name string, obj any, release func()) handle {
	id := ID(r.next.Add(1))
	r.entries.Set(id, &entry{kind: kind, name: name, obj: obj, release: release})
	r.live.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind.String())))
	r.log.Tracef("acquired %s %q as #%d", kind, name, id)
	return handle{reg: r, id: id, gen: r.gen.Load(), kind: kind, name: name}
}

// check validates the token and the handle, panicking on either failure.
func (h handle) check(s gate.Scope, op string) *entry {
	tok := gate.Require(s, op)
	if h.reg == nil {
		tok.Gate().Violate(op, "zero-value handle")
	}
	e, ok := h.reg.entries.Get(h.id)
	if !ok || h.gen != h.reg.gen.Load() {
		h.reg.gate.Violate(op, "%s %q used after release", h.kind, h.name)
	}
	return e
}

// ID returns the handle's registry id.
func (h handle) ID() ID { return h.id }

// Name returns the name the handle was acquired with.
func (h handle) Name() string { return h.name }

// Kind returns the resource kind.
func (h handle) Kind() Kind { return h.kind }

// Release frees the handle. Releasing twice, or after Close, does nothing.
func (h handle) Release(s gate.Scope) {
	gate.Require(s, "release "+h.kind.String())
	if h.reg == nil || h.gen != h.reg.gen.Load() {
		return
	}
	h.reg.remove(h.id)
}

func (r *Registry) remove(id ID) {
	e, ok := r.entries.Pop(id)
	if !ok {
		return
	}
	if e.release != nil {
		e.release()
	}
	r.live.Add(context.Background(), -1, metric.WithAttributes(attribute.String("kind", e.kind.String())))
	r.log.Tracef("released %s %q (#%d)", e.kind, e.name, id)
}

// Close releases every live handle, newest first, and invalidates all handles
// issued so far. It is called when the plugin stops.
func (r *Registry) Close(s gate.Scope) {
	gate.Require(s, "registry close")
	if r.closed.Swap(true) {
		return
	}
	ids := r.entries.Keys()
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	for _, id := range ids {
		r.remove(id)
	}
	r.gen.Add(1)
	r.log.Debugf("registry closed, %d handles released", len(ids))
}

func (r *Registry) lookup(id ID) (*entry, bool) {
	return r.entries.Get(id)
}
