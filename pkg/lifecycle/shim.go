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

// Package lifecycle adapts a plugin written against api.Plugin to the five
// entry points the host calls.
//
// The shim enforces the state machine
//
//	Uninitialized -> Started -> Enabled <-> Disabled -> Stopped -> Started
//
// opens a callback window around every hook, owns the registry of the current
// session and converts hook errors and panics into the status values the host
// understands. A plugin that panicked once receives no further hooks; its
// resources are still released at Stop.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/plugin-xplm/api"
	internal "github.com/srediag/plugin-xplm/internal/lifecycle"
	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/internal/thread"
	"github.com/srediag/plugin-xplm/pkg/dispatch"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/registry"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

const dispatchCloseTimeout = 2 * time.Second

// Options configures a Shim. Only Config is verified; everything else has a
// working default.
type Options struct {
	Config    *Config
	Logger    *logging.Logger
	Audit     api.Audit
	Validator api.SignatureValidator
	// Registry receives the shim's prometheus collectors. A private registry
	// is created when nil.
	Registry *prometheus.Registry
	Tracer   trace.Tracer
	Meter    metric.Meter
}

// Shim implements api.Lifecycle and api.Health for one plugin.
type Shim struct {
	host    host.Host
	factory api.Factory
	cfg     *Config
	log     *logging.Logger
	audit   api.Audit
	valid   api.SignatureValidator
	prom    *prometheus.Registry
	metrics *Metrics
	meter   metric.Meter
	gate    *gate.Gate

	// mu serializes entry points. The host never calls them concurrently but
	// integrations such as hot reload may. It stays held while a hook runs;
	// hook records the running hook so host re-entry from inside it is
	// recognized instead of waiting on mu.
	mu       sync.Mutex
	hook     atomic.Pointer[runningHook]
	state    atomic.Int32
	panicked atomic.Bool
	plugin   api.Plugin
	info     api.Info
	sess     *xplm.Session
	since    time.Time
}

type runningHook struct {
	name string
	tid  thread.ID
}

var (
	_ api.Lifecycle = (*Shim)(nil)
	_ api.Health    = (*Shim)(nil)
)

// New creates a shim for the plugin built by factory.
func New(h host.Host, factory api.Factory, opts Options) (*Shim, error) {
	if h == nil || factory == nil {
		return nil, errors.New("lifecycle: host and factory are required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := VerifyConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		lv, _ := logging.ParseLevel(cfg.LogLevel)
		logging.SetLevel(lv)
	}
	s := &Shim{
		host:    h,
		factory: factory,
		cfg:     cfg,
		log:     opts.Logger,
		audit:   opts.Audit,
		valid:   opts.Validator,
		prom:    opts.Registry,
		meter:   opts.Meter,
	}
	if s.log == nil {
		s.log = logging.New("lifecycle", h)
	}
	if s.audit == nil {
		s.audit = api.NopAudit{}
	}
	if s.prom == nil {
		s.prom = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.prom)
	s.gate = gate.New(gate.Options{
		Tracer:    opts.Tracer,
		PinThread: cfg.PinThread,
		OnEnter: func(name string) {
			s.metrics.Callbacks.WithLabelValues(callbackKind(name)).Inc()
		},
		OnViolation: func(v *gate.ContractViolation) {
			s.metrics.Violations.Inc()
			s.log.Errorf("%v", v)
		},
	})
	return s, nil
}

// Gate returns the shim's callback gate.
func (s *Shim) Gate() *gate.Gate { return s.gate }

// Metrics returns the shim's collectors.
func (s *Shim) Metrics() *Metrics { return s.metrics }

// Gatherer returns the prometheus registry holding the shim's collectors.
func (s *Shim) Gatherer() prometheus.Gatherer { return s.prom }

// State returns the current lifecycle state.
func (s *Shim) State() api.State {
	return api.State(s.state.Load())
}

// Panicked reports whether a hook or callback of the current session panicked.
func (s *Shim) Panicked() bool {
	return s.panicked.Load()
}

// Info returns what the plugin reported at start.
func (s *Shim) Info() api.Info {
	if s.inHook() == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return s.info
}

// Session returns the current session id, empty outside start/stop.
func (s *Shim) Session() string {
	if s.inHook() == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if s.sess == nil {
		return ""
	}
	return s.sess.ID
}

// Start runs the factory and fills desc. On failure nothing the factory
// acquired survives and the shim stays uninitialized.
func (s *Shim) Start(desc *host.Descriptor) bool {
	if s.reentered("start", api.StateStarted) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.allowed("start", api.StateStarted) {
		return false
	}
	s.panicked.Store(false)
	s.info = api.Info{}
	s.host.SetErrorCallback(func(msg string) {
		s.log.Errorf("host: %s", msg)
	})

	reg := registry.New(s.host, s.gate, registry.Options{
		Logger:  s.log.Named("registry"),
		Meter:   s.meter,
		OnPanic: s.onPanic,
	})
	sess := &xplm.Session{ID: uuid.NewString(), Registry: reg}
	s.sess = sess

	var p api.Plugin
	err := s.checkRevision()
	if err == nil {
		err = s.call("start", func(ctx *xplm.Context) error {
			if s.cfg.DispatchWorkers > 0 {
				d, derr := dispatch.New(reg, ctx, dispatch.Options{
					Workers: s.cfg.DispatchWorkers,
					Backlog: s.cfg.DispatchBacklog,
					Logger:  s.log.Named("dispatch"),
				})
				if derr != nil {
					return derr
				}
				sess.Dispatcher = d
			}
			var ferr error
			p, ferr = s.factory(ctx)
			if ferr == nil && p == nil {
				ferr = errors.New("factory returned no plugin")
			}
			return ferr
		})
	}
	var info api.Info
	if err == nil {
		info = p.Info()
		if err = s.checkInfo(info); err != nil {
			s.call("stop", p.Stop)
		}
	}
	if err != nil {
		s.hookFailed("start", err)
		s.teardown()
		s.setState(api.StateUninitialized)
		s.event("start_failed", map[string]interface{}{"error": err.Error()})
		return false
	}

	desc.Set(info.Name, info.Signature, info.Description)
	s.plugin, s.info = p, info
	s.transition(api.StateStarted)
	return true
}

// Enable runs the enable hook. A failing hook leaves the plugin disabled and
// the host is told so.
func (s *Shim) Enable() bool {
	if s.reentered("enable", api.StateEnabled) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.panicked.Load() {
		s.log.Warnf("not enabling %q: plugin panicked", s.info.Name)
		return false
	}
	if !s.allowed("enable", api.StateEnabled) {
		return false
	}
	if err := s.call("enable", s.plugin.Enable); err != nil {
		s.hookFailed("enable", err)
		return false
	}
	s.transition(api.StateEnabled)
	return true
}

// Disable runs the disable hook. The state changes even when the hook fails.
func (s *Shim) Disable() {
	if s.reentered("disable", api.StateDisabled) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disable()
}

func (s *Shim) disable() {
	if !s.allowed("disable", api.StateDisabled) {
		return
	}
	if !s.panicked.Load() {
		if err := s.call("disable", s.plugin.Disable); err != nil {
			s.hookFailed("disable", err)
		}
	}
	s.transition(api.StateDisabled)
}

// Stop runs the stop hook and releases every handle of the session. An
// enabled plugin is disabled first.
func (s *Shim) Stop() {
	if s.reentered("stop", api.StateStopped) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == api.StateEnabled {
		s.disable()
	}
	if !s.allowed("stop", api.StateStopped) {
		return
	}
	if !s.panicked.Load() {
		if err := s.call("stop", s.plugin.Stop); err != nil {
			s.hookFailed("stop", err)
		}
	}
	s.teardown()
	s.plugin = nil
	s.transition(api.StateStopped)
}

// ReceiveMessage forwards a message to plugins implementing
// api.MessageReceiver. Messages outside a live session are dropped. A message
// the host delivers from inside one of this plugin's hooks, such as one the
// plugin sent to itself, runs in a window nested in the hook's.
func (s *Shim) ReceiveMessage(from host.PluginID, msg host.MessageID, param uintptr) {
	if s.inHook() == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	switch s.State() {
	case api.StateStarted, api.StateEnabled, api.StateDisabled:
	default:
		s.log.Debugf("dropping %v from %d in state %v", xplm.Message(msg), from, s.State())
		return
	}
	if s.panicked.Load() {
		return
	}
	rcv, ok := s.plugin.(api.MessageReceiver)
	if !ok {
		return
	}
	s.log.Tracef("message %v from %d", xplm.Message(msg), from)
	err := s.call("message", func(ctx *xplm.Context) error {
		rcv.ReceiveMessage(ctx, from, xplm.Message(msg), param)
		return nil
	})
	if err != nil {
		s.hookFailed("message", err)
	}
}

// LivenessCheck fails once the plugin panicked.
func (s *Shim) LivenessCheck() error {
	if s.panicked.Load() {
		return ErrPanicked
	}
	return nil
}

// ReadinessCheck fails unless the plugin is enabled.
func (s *Shim) ReadinessCheck() error {
	if err := s.LivenessCheck(); err != nil {
		return err
	}
	if st := s.State(); st != api.StateEnabled {
		return fmt.Errorf("%w (state %v)", ErrNotEnabled, st)
	}
	return nil
}

// call runs a hook inside a callback window. Panics are recovered, mark the
// plugin as panicked and come back as a *PanicError.
func (s *Shim) call(hook string, fn func(ctx *xplm.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if s.sess != nil {
				s.sess.Registry.Halt()
			}
			s.onPanic(hook, r)
			err = &LifecycleError{Hook: hook, Err: &PanicError{Value: r}}
		}
	}()
	s.gate.Enter(hook, func(tok *gate.Token) {
		prev := s.hook.Swap(&runningHook{name: hook, tid: thread.Current()})
		defer s.hook.Store(prev)
		if herr := fn(xplm.NewContext(tok, s.sess)); herr != nil {
			err = &LifecycleError{Hook: hook, Err: herr}
		}
	})
	return err
}

// teardown closes the dispatcher and the registry of the current session.
func (s *Shim) teardown() {
	sess := s.sess
	if sess == nil {
		return
	}
	s.sess = nil
	s.gate.Enter("stop cleanup", func(tok *gate.Token) {
		if sess.Dispatcher != nil {
			if err := sess.Dispatcher.Close(tok, dispatchCloseTimeout); err != nil {
				s.log.Warnf("closing dispatcher: %v", err)
			}
		}
		sess.Registry.Close(tok)
	})
	if u, ok := s.valid.(interface{ Release(string) }); ok && s.info.Signature != "" {
		u.Release(s.info.Signature)
	}
}

func (s *Shim) checkRevision() error {
	xp, v := s.host.Versions()
	rev := xplm.Revision(s.cfg.Revision)
	if !rev.Supports(v) {
		return fmt.Errorf("%w: host X-Plane %d reports XPLM %d, need %v", ErrUnsupportedRevision, xp, v, rev)
	}
	return nil
}

func (s *Shim) checkInfo(info api.Info) error {
	if info.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInfo)
	}
	if s.cfg.ValidateSignature && s.valid != nil {
		if err := s.valid.ValidateSignature(info.Signature); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInfo, err)
		}
	}
	return nil
}

// inHook returns the hook running on the calling thread, if any. Only the
// goroutine running a hook can match: the gate keeps it on its thread.
func (s *Shim) inHook() *runningHook {
	h := s.hook.Load()
	if h == nil || h.tid != thread.Current() {
		return nil
	}
	return h
}

// reentered rejects a state change requested from inside a running hook.
func (s *Shim) reentered(hook string, to api.State) bool {
	h := s.inHook()
	if h == nil {
		return false
	}
	s.reject(hook, to, fmt.Errorf("%w: %s requested inside the %s hook", ErrInvalidTransition, hook, h.name))
	return true
}

func (s *Shim) allowed(hook string, to api.State) bool {
	from := s.State()
	if internal.Allowed(from, to) {
		return true
	}
	s.reject(hook, to, fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, from, to))
	return false
}

func (s *Shim) reject(hook string, to api.State, err error) {
	s.log.Errorf("%s ignored: %v", hook, &LifecycleError{Hook: hook, Err: err})
	s.metrics.HookFailures.WithLabelValues(hook).Inc()
	s.event("rejected", map[string]interface{}{"hook": hook, "from": s.State().String(), "to": to.String()})
}

func (s *Shim) transition(to api.State) {
	from := s.State()
	s.setState(to)
	s.metrics.Transitions.WithLabelValues(from.String(), to.String()).Inc()
	elapsed := time.Since(s.since)
	if from == api.StateUninitialized || from == api.StateStopped {
		elapsed = 0
	}
	s.since = time.Now()
	s.log.Infof("%q %v -> %v", s.info.Name, from, to)
	s.event(to.String(), map[string]interface{}{
		"from":      from.String(),
		"in_state":  elapsed.String(),
		"signature": s.info.Signature,
	})
}

func (s *Shim) setState(st api.State) {
	s.state.Store(int32(st))
	s.metrics.State.Set(float64(st))
}

func (s *Shim) hookFailed(hook string, err error) {
	s.metrics.HookFailures.WithLabelValues(hook).Inc()
	s.log.Errorf("%v", err)
	s.event("hook_failed", map[string]interface{}{"hook": hook, "error": err.Error()})
}

func (s *Shim) onPanic(callback string, r any) {
	if s.panicked.Swap(true) {
		return
	}
	s.metrics.Panics.Inc()
	s.log.Errorf("%q panicked in %s: %v; no further callbacks will run", s.info.Name, callback, r)
	s.event("panic", map[string]interface{}{"callback": callback, "value": fmt.Sprint(r)})
}

func (s *Shim) event(name string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["plugin"] = s.info.Name
	if s.sess != nil {
		details["session"] = s.sess.ID
	}
	if err := s.audit.LogEvent(name, details); err != nil {
		s.log.Warnf("audit %s: %v", name, err)
	}
}

// callbackKind maps a callback window name to a low-cardinality label.
func callbackKind(name string) string {
	switch name {
	case "start", "enable", "disable", "stop", "message", "stop cleanup":
		return "lifecycle"
	}
	for _, k := range []string{"flight loop", "command", "menu", "lookup", "dataref", "shared"} {
		if len(name) >= len(k) && name[:len(k)] == k {
			return k
		}
	}
	return "other"
}
