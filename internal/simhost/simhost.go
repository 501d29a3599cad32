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

// Package simhost is an in-memory implementation of host.Host.
//
// All host-originated calls (plugin entry points, command and menu callbacks,
// flight loops) run on a single goroutine locked to its OS thread, the way the
// simulator calls plugins from its main thread. Use Do to run anything else
// there.
package simhost

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/plugin-xplm/internal/thread"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// Options configures a simulated host.
type Options struct {
	XPlaneVersion int
	XPLMVersion   int
	// Features lists the features the host knows, with their initial state.
	Features map[string]bool
	// Out mirrors the debug console. Nil keeps it in memory only.
	Out io.Writer
}

// DefaultOptions matches a recent simulator release.
func DefaultOptions() Options {
	return Options{
		XPlaneVersion: 12100,
		XPLMVersion:   410,
		Features: map[string]bool{
			"XPLM_USE_NATIVE_PATHS":            false,
			"XPLM_USE_NATIVE_WIDGET_WINDOWS":   false,
			"XPLM_WANTS_REFLECTIONS":           false,
			"XPLM_WANTS_DATAREF_NOTIFICATIONS": false,
		},
	}
}

// Message is a record of SendMessageToPlugin.
type Message struct {
	To    host.PluginID
	ID    host.MessageID
	Param uintptr
}

// Host is the simulated host. The zero value is not usable; call New.
type Host struct {
	opts Options

	calls    chan func()
	done     chan struct{}
	tid      atomic.Int64
	closeOne sync.Once

	nextRef atomic.Uintptr

	datarefs  cmap.ConcurrentMap[string, *dataRef]
	refs      cmap.ConcurrentMap[host.DataRef, *dataRef]
	commands  cmap.ConcurrentMap[string, *command]
	cmdRefs   cmap.ConcurrentMap[host.CommandRef, *command]
	handlers  cmap.ConcurrentMap[host.HandlerID, *cmdHandler]
	menus     cmap.ConcurrentMap[host.MenuID, *menu]
	loops     cmap.ConcurrentMap[host.FlightLoopID, *loop]
	features  cmap.ConcurrentMap[string, bool]
	plugins   cmap.ConcurrentMap[string, host.PluginID]
	table     cmap.ConcurrentMap[host.PluginID, *peer]
	loaded    atomic.Pointer[Loaded]
	shares    cmap.ConcurrentMap[host.ShareID, *share]
	nextHdl   atomic.Uint64
	frame     atomic.Int64
	elapsed   atomic.Int64
	myID      host.PluginID
	errorCB   atomic.Pointer[host.ErrorCallback]
	consoleMu sync.Mutex
	console   strings.Builder
	sentMu    sync.Mutex
	sent      []Message
}

var _ host.Host = (*Host)(nil)

func shard[K ~uintptr | ~uint64](k K) uint32 {
	return uint32(k) ^ uint32(uint64(k)>>32)
}

// New starts a simulated host and its host thread.
func New(opts Options) *Host {
	h := &Host{
		opts:     opts,
		calls:    make(chan func()),
		done:     make(chan struct{}),
		datarefs: cmap.New[*dataRef](),
		refs:     cmap.NewWithCustomShardingFunction[host.DataRef, *dataRef](shard[host.DataRef]),
		commands: cmap.New[*command](),
		cmdRefs:  cmap.NewWithCustomShardingFunction[host.CommandRef, *command](shard[host.CommandRef]),
		handlers: cmap.NewWithCustomShardingFunction[host.HandlerID, *cmdHandler](shard[host.HandlerID]),
		menus:    cmap.NewWithCustomShardingFunction[host.MenuID, *menu](shard[host.MenuID]),
		loops:    cmap.NewWithCustomShardingFunction[host.FlightLoopID, *loop](shard[host.FlightLoopID]),
		features: cmap.New[bool](),
		plugins:  cmap.New[host.PluginID](),
		table:    cmap.NewWithCustomShardingFunction[host.PluginID, *peer](shardPlugin),
		shares:   cmap.NewWithCustomShardingFunction[host.ShareID, *share](shard[host.ShareID]),
	}
	h.table.Set(host.XPlane, newPeer(host.PluginInfo{Name: "X-Plane"}))
	h.myID = h.addPeer(host.PluginInfo{})
	for name, on := range opts.Features {
		h.features.Set(name, on)
	}
	h.menus.Set(pluginsMenu, &menu{name: "Plugins"})
	h.nextRef.Store(uintptr(pluginsMenu))
	ready := make(chan struct{})
	go h.loop(ready)
	<-ready
	return h
}

func (h *Host) loop(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	h.tid.Store(int64(thread.Current()))
	close(ready)
	for {
		select {
		case fn := <-h.calls:
			fn()
		case <-h.done:
			return
		}
	}
}

// Close stops the host thread. Pending Do calls panic.
func (h *Host) Close() {
	h.closeOne.Do(func() { close(h.done) })
}

// OnHostThread reports whether the caller runs on the host thread.
func (h *Host) OnHostThread() bool {
	return int64(thread.Current()) == h.tid.Load()
}

type result struct {
	panicked bool
	value    any
}

// Do runs fn on the host thread and waits for it. A panic in fn is re-raised
// in the caller. Calls made from the host thread run inline.
func (h *Host) Do(fn func()) {
	if h.OnHostThread() {
		fn()
		return
	}
	res := make(chan result, 1)
	call := func() {
		defer func() {
			if r := recover(); r != nil {
				res <- result{panicked: true, value: r}
				return
			}
			res <- result{}
		}()
		fn()
	}
	select {
	case h.calls <- call:
	case <-h.done:
		panic("simhost: host closed")
	}
	if r := <-res; r.panicked {
		panic(r.value)
	}
}

// DebugString appends to the console.
func (h *Host) DebugString(s string) {
	h.consoleMu.Lock()
	h.console.WriteString(s)
	h.consoleMu.Unlock()
	if h.opts.Out != nil {
		_, _ = io.WriteString(h.opts.Out, s)
	}
}

// Console returns everything written with DebugString.
func (h *Host) Console() string {
	h.consoleMu.Lock()
	defer h.consoleMu.Unlock()
	return h.console.String()
}

func (h *Host) Versions() (int, int) {
	return h.opts.XPlaneVersion, h.opts.XPLMVersion
}

func (h *Host) MyID() host.PluginID {
	return h.myID
}

func (h *Host) FindPluginBySignature(signature string) host.PluginID {
	if id, ok := h.plugins.Get(signature); ok {
		return id
	}
	return host.NoPlugin
}

func (h *Host) SendMessageToPlugin(to host.PluginID, msg host.MessageID, param uintptr) {
	h.sentMu.Lock()
	h.sent = append(h.sent, Message{To: to, ID: msg, Param: param})
	h.sentMu.Unlock()
}

// Sent returns the messages plugins sent so far.
func (h *Host) Sent() []Message {
	h.sentMu.Lock()
	defer h.sentMu.Unlock()
	return append([]Message(nil), h.sent...)
}

func (h *Host) HasFeature(name string) bool {
	return h.features.Has(name)
}

func (h *Host) IsFeatureEnabled(name string) bool {
	on, _ := h.features.Get(name)
	return on
}

func (h *Host) EnableFeature(name string, enabled bool) {
	if !h.features.Has(name) {
		h.ReportError(fmt.Sprintf("unknown feature %s", name))
		return
	}
	h.features.Set(name, enabled)
}

func (h *Host) EnumerateFeatures() []string {
	return h.features.Keys()
}

func (h *Host) SetErrorCallback(cb host.ErrorCallback) {
	if cb == nil {
		h.errorCB.Store(nil)
		return
	}
	h.errorCB.Store(&cb)
}

// ReportError delivers msg to the plugin's error callback, if any.
func (h *Host) ReportError(msg string) {
	if cb := h.errorCB.Load(); cb != nil {
		(*cb)(msg)
	}
}

func (h *Host) newRef() uintptr {
	return h.nextRef.Add(1)
}

// Now returns the simulated time elapsed since the host started.
func (h *Host) Now() time.Duration {
	return time.Duration(h.elapsed.Load())
}

// Frame returns the number of frames run by Tick.
func (h *Host) Frame() int64 {
	return h.frame.Load()
}
