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

// Package xplm is the surface plugin code programs against.
//
// A *Context is handed to every plugin hook. It carries the callback token, so
// it can be passed anywhere a gate.Scope is expected, and it is only valid until
// the hook returns. Keep handles, never contexts.
package xplm

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/pkg/dispatch"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/registry"
)

// Session is what one start/stop span of a plugin owns.
type Session struct {
	ID       string
	Registry *registry.Registry
	// Dispatcher is nil when background work is disabled.
	Dispatcher *dispatch.Dispatcher
}

// Context is the per-callback view of the SDK.
type Context struct {
	*gate.Token
	reg  *registry.Registry
	sess *Session
}

// NewContext binds a token to a session.
func NewContext(tok *gate.Token, sess *Session) *Context {
	return &Context{Token: tok, reg: sess.Registry, sess: sess}
}

// Bind returns a context for tok in the same session. Flight loop, command,
// menu and dispatcher callbacks receive only a token; Bind gives them the
// full surface again.
func (c *Context) Bind(tok *gate.Token) *Context {
	return &Context{Token: tok, reg: c.reg, sess: c.sess}
}

func (c *Context) sdk(op string) host.Host {
	gate.Require(c, op)
	return c.reg.Host()
}

// Session returns the id of the current start/stop span.
func (c *Context) Session() string {
	return c.sess.ID
}

// Registry returns the session's handle registry.
func (c *Context) Registry() *registry.Registry {
	return c.reg
}

// Debugf writes to the host log (Log.txt). A trailing newline is added when
// missing.
func (c *Context) Debugf(format string, args ...any) {
	h := c.sdk("debug")
	msg := fmt.Sprintf(format, args...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	logging.Printf(h, "%s", msg)
}

// Debugln writes its operands to the host log, space separated.
func (c *Context) Debugln(args ...any) {
	logging.Printf(c.sdk("debug"), "%s", fmt.Sprintln(args...))
}

// Versions returns the simulator and SDK versions, e.g. 12100 and 410.
func (c *Context) Versions() (xplane, xplm int) {
	return c.sdk("versions").Versions()
}

// MyID returns the host's id for this plugin.
func (c *Context) MyID() host.PluginID {
	return c.sdk("my id").MyID()
}

// FindPlugin looks up another plugin by signature.
func (c *Context) FindPlugin(signature string) (host.PluginID, bool) {
	id := c.sdk("find plugin").FindPluginBySignature(signature)
	return id, id != host.NoPlugin
}

// SendMessage sends a message to another plugin. Plugin-defined ids should be
// above the range the host reserves.
func (c *Context) SendMessage(to host.PluginID, msg Message, param uintptr) {
	c.sdk("send message").SendMessageToPlugin(to, host.MessageID(msg), param)
}

// HasFeature reports whether the host knows a feature.
func (c *Context) HasFeature(name string) bool {
	return c.sdk("has feature").HasFeature(name)
}

// FeatureEnabled reports whether a feature is on.
func (c *Context) FeatureEnabled(name string) bool {
	return c.sdk("feature enabled").IsFeatureEnabled(name)
}

// EnableFeature turns a feature on or off. Unknown features yield
// ErrUnsupported and are not passed to the host.
func (c *Context) EnableFeature(name string, enabled bool) error {
	h := c.sdk("enable feature")
	if !h.HasFeature(name) {
		return &registry.Error{Op: "enable feature", Name: name, Err: ErrUnsupported}
	}
	h.EnableFeature(name, enabled)
	return nil
}

// Features lists every feature the host knows.
func (c *Context) Features() []string {
	return c.sdk("features").EnumerateFeatures()
}

// FindDataRef looks up a dataref. See registry.Registry.FindDataRef.
func (c *Context) FindDataRef(name string) (*registry.DataRef, error) {
	return c.reg.FindDataRef(c, name)
}

// FindDataRefDeferred resolves a dataref that may appear later. A nil policy
// uses registry.DefaultLookupBackOff on the host clock.
func (c *Context) FindDataRefDeferred(name string, policy backoff.BackOff, done func(tok *gate.Token, d *registry.DataRef, err error)) (*registry.FlightLoop, error) {
	return c.reg.FindDataRefDeferred(c, name, policy, done)
}

// FindCommand looks up a command.
func (c *Context) FindCommand(name string) (*registry.Command, error) {
	return c.reg.FindCommand(c, name)
}

// CreateCommand creates a command handled by h.
func (c *Context) CreateCommand(name, description string, h registry.CommandHandler) (*registry.OwnedCommand, error) {
	return c.reg.CreateCommand(c, name, description, h)
}

// Intercept attaches h to someone else's command.
func (c *Context) Intercept(cmd *registry.Command, before bool, h registry.CommandHandler) *registry.Interception {
	return c.reg.Intercept(c, cmd, before, h)
}

// NewMenu adds a menu under the plugins menu.
func (c *Context) NewMenu(name string) (*registry.Menu, error) {
	return c.reg.NewMenu(c, name)
}

// NewFlightLoop creates a deactivated flight loop.
func (c *Context) NewFlightLoop(name string, phase host.FlightLoopPhase, fn registry.FlightLoopFunc) *registry.FlightLoop {
	return c.reg.NewFlightLoop(c, name, phase, fn)
}

// Every creates a flight loop that calls fn every interval until fn returns
// false. The first call comes one interval from now.
func (c *Context) Every(name string, interval time.Duration, fn func(tok *gate.Token) bool) *registry.FlightLoop {
	fl := c.reg.NewFlightLoop(c, name, host.BeforeFlightModel, func(tok *gate.Token, _ registry.LoopState) registry.LoopResult {
		if !fn(tok) {
			return registry.Deactivate
		}
		return registry.After(interval)
	})
	fl.ScheduleAfter(c, interval)
	return fl
}

// Publish registers a plugin-owned dataref.
func Publish[T registry.Value](c *Context, name string, writable bool, initial T) (*registry.Owned[T], error) {
	return registry.Publish(c.reg, c, name, writable, initial)
}

// Share joins a dataref shared between plugins. See registry.Share.
func Share[T registry.Value](c *Context, name string, changed registry.SharedHandler) (*registry.Shared, error) {
	return registry.Share[T](c.reg, c, name, changed)
}

// Go runs work on the background pool and calls done on the host thread once
// it finishes. It returns ErrUnsupported when the pool is disabled.
func (c *Context) Go(name string, work dispatch.Work, done dispatch.Done) error {
	gate.Require(c, "go")
	if c.sess.Dispatcher == nil {
		return &registry.Error{Op: "go", Name: name, Err: ErrUnsupported}
	}
	return c.sess.Dispatcher.Submit(c, name, work, done)
}
