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

package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/plugin-xplm/adapter"
	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/examples/counter"
	"github.com/srediag/plugin-xplm/examples/relay"
	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/audit"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/lifecycle"
	"github.com/srediag/plugin-xplm/pkg/security"
)

var (
	ErrUnknownPlugin = errors.New("scenario: unknown plugin")
	ErrUnloaded      = errors.New("scenario: plugin unloaded")
)

// Plugin builds the factory of a named plugin for a scenario.
type Plugin func(sc *Scenario) api.Factory

// Plugins are the plugins a scenario can name.
var Plugins = map[string]Plugin{
	"counter": func(*Scenario) api.Factory { return counter.New },
	"relay":   func(sc *Scenario) api.Factory { return relay.NewFactory(sc.Relay) },
}

// Options configures a Runner.
type Options struct {
	// Out mirrors the host console.
	Out io.Writer
	// Plugins replaces the package-level table.
	Plugins map[string]Plugin
	// OTel fills the shim's tracer and meter from the global providers.
	OTel bool
}

// Failure is an expectation that did not hold.
type Failure struct {
	Step int
	Msg  string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d: %s", f.Step, f.Msg)
}

// Report summarizes a run.
type Report struct {
	Name     string
	Steps    int
	Frames   int
	Reloads  int
	Failures []Failure
	// Events are the audit event names in order.
	Events []string
}

// OK reports whether every expectation held.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Runner owns a simulated host with one loaded plugin.
type Runner struct {
	sc     *Scenario
	host   *simhost.Host
	shim   *lifecycle.Shim
	reg    *prometheus.Registry
	rec    *audit.Recorder
	reload *adapter.Reloader
	log    *logging.Logger

	unloaded bool
}

// NewRunner starts the host, defines the scenario's host state and loads the
// plugin. The plugin must start; whether it enables is left to expectations.
func NewRunner(sc *Scenario, opts Options) (*Runner, error) {
	plugins := opts.Plugins
	if plugins == nil {
		plugins = Plugins
	}
	mk, ok := plugins[sc.Plugin]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPlugin, sc.Plugin)
	}
	cfg, err := sc.LifecycleConfig()
	if err != nil {
		return nil, err
	}

	hopts := sc.HostOptions()
	hopts.Out = opts.Out
	h := simhost.New(hopts)
	for _, sig := range sc.Host.Plugins {
		h.AddPlugin(sig)
	}
	for _, spec := range sc.DataRefs {
		h.Define(spec)
	}
	for _, name := range sc.Commands {
		h.DefineCommand(name, name)
	}

	r := &Runner{
		sc:   sc,
		host: h,
		reg:  prometheus.NewRegistry(),
		rec:  audit.NewRecorder(1024),
		log:  logging.New("scenario", h),
	}
	lopts := lifecycle.Options{
		Config:    cfg,
		Audit:     adapter.Tee(r.rec, audit.NewLogger(r.log)),
		Validator: security.NewUnique(security.DefaultValidator()),
		Registry:  r.reg,
	}
	if opts.OTel {
		lopts = adapter.WithOTel(lopts)
	}
	r.shim, err = lifecycle.New(h, mk(sc), lopts)
	if err != nil {
		h.Close()
		return nil, err
	}
	if _, err := h.Load(r.shim); err != nil {
		h.Close()
		return nil, fmt.Errorf("scenario: load %s: %w", sc.Plugin, err)
	}
	r.reload = adapter.NewReloader(r.shim, h.Do)
	return r, nil
}

func (r *Runner) Host() *simhost.Host            { return r.host }
func (r *Runner) Shim() *lifecycle.Shim          { return r.shim }
func (r *Runner) Registry() *prometheus.Registry { return r.reg }
func (r *Runner) Recorder() *audit.Recorder      { return r.rec }

// Run executes every step. Failed expectations are collected in the report;
// any other error ends the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Name: r.sc.Name}
	defer func() {
		rep.Reloads = r.reload.Reloads()
		rep.Events = r.rec.Names()
	}()
	for i, st := range r.sc.Steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := r.step(i+1, st, rep); err != nil {
			return rep, fmt.Errorf("scenario: step %d (%s): %w", i+1, st.Kind(), err)
		}
		rep.Steps++
	}
	return rep, nil
}

// Idle runs frames in real time until ctx is done.
func (r *Runner) Idle(ctx context.Context) {
	t := time.NewTicker(r.sc.frame())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.host.Tick(r.sc.frame())
		}
	}
}

// Close unloads the plugin if needed and stops the host.
func (r *Runner) Close() {
	if !r.unloaded {
		r.host.Do(r.shim.Stop)
		r.unloaded = true
	}
	r.host.Close()
}

func (r *Runner) step(n int, st Step, rep *Report) error {
	switch st.Kind() {
	case "run":
		r.host.Run(st.Run, r.sc.frame())
		rep.Frames += st.Run
	case "command":
		if !r.host.RunCommand(st.Command) {
			return fmt.Errorf("unknown command %q", st.Command)
		}
	case "hold":
		if !r.host.HoldCommand(st.Hold.Command, st.Hold.Frames) {
			return fmt.Errorf("unknown command %q", st.Hold.Command)
		}
	case "click":
		return r.click(st.Click)
	case "set":
		return r.set(st.Set)
	case "message":
		return r.message(st.Message)
	case "lifecycle":
		return r.lifecycle(st.Lifecycle)
	case "expect":
		for _, msg := range r.expect(st.Expect) {
			r.log.Warnf("step %d: %s", n, msg)
			rep.Failures = append(rep.Failures, Failure{Step: n, Msg: msg})
		}
	default:
		return ErrInvalidStep
	}
	return nil
}

func (r *Runner) click(c *Click) error {
	menu := r.host.MenuByName(c.Menu)
	if menu == 0 {
		return fmt.Errorf("no menu %q", c.Menu)
	}
	for i, it := range r.host.Items(menu) {
		if it.Name != c.Item {
			continue
		}
		if !r.host.Click(menu, i) {
			return fmt.Errorf("menu item %q is not clickable", c.Item)
		}
		return nil
	}
	return fmt.Errorf("menu %q has no item %q", c.Menu, c.Item)
}

func (r *Runner) set(s *Set) error {
	ref := r.host.FindDataRef(s.DataRef)
	if ref == 0 {
		return fmt.Errorf("no dataref %q", s.DataRef)
	}
	if !r.host.CanWriteDataRef(ref) {
		return fmt.Errorf("dataref %q is read-only", s.DataRef)
	}
	types := r.host.DataRefTypes(ref)
	var want host.DataType
	switch {
	case s.Int != nil:
		want = host.TypeInt
	case s.Float != nil:
		want = host.TypeFloat
	default:
		want = host.TypeDouble
	}
	if !types.Has(want) {
		return fmt.Errorf("dataref %q is %v, not %v", s.DataRef, types, want)
	}
	r.host.Do(func() {
		switch want {
		case host.TypeInt:
			r.host.SetDatai(ref, *s.Int)
		case host.TypeFloat:
			r.host.SetDataf(ref, *s.Float)
		default:
			r.host.SetDatad(ref, *s.Double)
		}
	})
	return nil
}

func (r *Runner) message(m *Message) error {
	if r.unloaded {
		return ErrUnloaded
	}
	from := host.NoPlugin
	if m.From != "" {
		from = r.host.FindPluginBySignature(m.From)
		if from == host.NoPlugin {
			return fmt.Errorf("no peer plugin %q", m.From)
		}
	}
	r.host.Do(func() { r.shim.ReceiveMessage(from, host.MessageID(m.ID), m.Param) })
	return nil
}

func (r *Runner) lifecycle(action string) error {
	if r.unloaded {
		return ErrUnloaded
	}
	switch action {
	case "enable":
		r.host.Do(func() { r.shim.Enable() })
	case "disable":
		r.host.Do(r.shim.Disable)
	case "unload":
		r.host.Do(r.shim.Stop)
		r.unloaded = true
	case "reload":
		// a failed reload is visible through state expectations
		if err := r.reload.Reload(); err != nil {
			r.log.Warnf("reload: %v", err)
		}
	}
	return nil
}

func (r *Runner) expect(e *Expect) []string {
	var failed []string
	if e.DataRef != "" {
		failed = append(failed, r.expectDataRef(e)...)
	}
	if e.State != "" {
		if got := r.shim.State().String(); !strings.EqualFold(got, e.State) {
			failed = append(failed, fmt.Sprintf("state is %s, want %s", got, e.State))
		}
	}
	if e.Console != "" && !strings.Contains(r.host.Console(), e.Console) {
		failed = append(failed, fmt.Sprintf("console has no %q", e.Console))
	}
	if e.Sent != nil {
		if got := len(r.host.Sent()); got != *e.Sent {
			failed = append(failed, fmt.Sprintf("%d messages sent, want %d", got, *e.Sent))
		}
	}
	return failed
}

func (r *Runner) expectDataRef(e *Expect) []string {
	ref := r.host.FindDataRef(e.DataRef)
	switch {
	case ref == 0 && e.Missing:
		return nil
	case ref == 0:
		return []string{fmt.Sprintf("no dataref %q", e.DataRef)}
	case e.Missing:
		return []string{fmt.Sprintf("dataref %q exists", e.DataRef)}
	}
	var failed []string
	r.host.Do(func() {
		if e.Int != nil {
			if got := r.host.GetDatai(ref); got != *e.Int {
				failed = append(failed, fmt.Sprintf("%s = %d, want %d", e.DataRef, got, *e.Int))
			}
		}
		if e.Float != nil {
			if got := float64(r.host.GetDataf(ref)); !near(got, *e.Float, e.Tolerance) {
				failed = append(failed, fmt.Sprintf("%s = %g, want %g", e.DataRef, got, *e.Float))
			}
		}
		if e.Double != nil {
			if got := r.host.GetDatad(ref); !near(got, *e.Double, e.Tolerance) {
				failed = append(failed, fmt.Sprintf("%s = %g, want %g", e.DataRef, got, *e.Double))
			}
		}
	})
	return failed
}

func near(got, want, tol float64) bool {
	if tol == 0 {
		tol = 1e-6
	}
	return math.Abs(got-want) <= tol
}
