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

// Package gate restricts SDK access to host callback windows.
//
// Every host-originated callback enters the Gate, which locks the goroutine to
// its OS thread and hands out a Token valid only for the dynamic extent of that
// callback. Anything that touches SDK state calls Require first; a missing,
// expired or escaped token is a programming error and panics with a
// *ContractViolation.
//
//	g.Enter("flight loop", func(tok *gate.Token) {
//		v, err := ref.GetFloat(tok)
//		...
//	})
package gate

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/plugin-xplm/internal/thread"
)

const tracerName = "github.com/srediag/plugin-xplm/pkg/gate"

// Options configures a Gate. The zero value is usable.
type Options struct {
	// Tracer records one span per callback window. Defaults to a noop tracer.
	Tracer trace.Tracer
	// PinThread binds the gate to the first OS thread that enters it. Later
	// entries from any other thread are violations.
	PinThread bool
	// OnViolation is called before the violation panic is raised.
	OnViolation func(v *ContractViolation)
	// OnEnter is called for every window opened, with the callback name.
	OnEnter func(name string)
}

// Gate tracks the currently open callback windows.
type Gate struct {
	opts   Options
	tracer trace.Tracer

	mu         sync.Mutex
	cur        *window
	hostThread thread.ID
	pinned     bool
	seq        uint64
}

type window struct {
	gate   *Gate
	name   string
	id     uint64
	depth  int
	tid    thread.ID
	parent *window
	closed atomic.Bool
}

// New creates a gate.
func New(opts Options) *Gate {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return &Gate{opts: opts, tracer: tracer}
}

// Enter opens a callback window, runs fn with a token scoped to it and closes
// the window when fn returns or panics. Windows nest when the host re-enters
// plugin code from inside a callback.
func (g *Gate) Enter(name string, fn func(tok *Token)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w := g.open(name)
	if g.opts.OnEnter != nil {
		g.opts.OnEnter(name)
	}
	_, span := g.tracer.Start(context.Background(), "xplm.callback",
		trace.WithAttributes(
			attribute.String("xplm.callback.name", name),
			attribute.Int("xplm.callback.depth", w.depth),
		))
	defer func() {
		g.close(w)
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("callback %q panicked: %v", name, r))
			span.End()
			panic(r)
		}
		span.End()
	}()
	fn(&Token{w: w})
}

func (g *Gate) open(name string) *window {
	tid := thread.Current()
	g.mu.Lock()
	if g.opts.PinThread {
		if !g.pinned {
			g.hostThread, g.pinned = tid, true
		} else if tid != g.hostThread {
			host := g.hostThread
			g.mu.Unlock()
			g.Violate("enter "+name, "callback entered on thread %d, host thread is %d", tid, host)
		}
	}
	if g.cur != nil && g.cur.tid != tid {
		other := g.cur.tid
		g.mu.Unlock()
		g.Violate("enter "+name, "callback entered on thread %d while a window is open on thread %d", tid, other)
	}
	g.seq++
	w := &window{gate: g, name: name, id: g.seq, tid: tid, parent: g.cur}
	if g.cur != nil {
		w.depth = g.cur.depth + 1
	}
	g.cur = w
	g.mu.Unlock()
	return w
}

func (g *Gate) close(w *window) {
	w.closed.Store(true)
	g.mu.Lock()
	if g.cur == w {
		g.cur = w.parent
	}
	g.mu.Unlock()
}

// Active reports whether a callback window is currently open.
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cur != nil
}

// Depth returns the number of nested windows currently open.
func (g *Gate) Depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cur == nil {
		return 0
	}
	return g.cur.depth + 1
}

// Violate reports a contract violation to the observer and panics with it.
func (g *Gate) Violate(op, format string, args ...any) {
	v := &ContractViolation{Op: op, Reason: fmt.Sprintf(format, args...)}
	if g != nil && g.opts.OnViolation != nil {
		g.opts.OnViolation(v)
	}
	panic(v)
}

// Token proves the holder runs inside a specific callback window on the host
// thread. The zero value is never valid.
type Token struct {
	w *window
}

// Scope is anything carrying a token: *Token itself, or values embedding it.
type Scope interface {
	token() *Token
}

func (t *Token) token() *Token { return t }

// Callback returns the name of the callback that issued the token.
func (t *Token) Callback() string {
	if t == nil || t.w == nil {
		return ""
	}
	return t.w.name
}

// Gate returns the gate that issued the token, or nil for an invalid token.
func (t *Token) Gate() *Gate {
	if t == nil || t.w == nil {
		return nil
	}
	return t.w.gate
}

// Valid reports whether the token may be used right now, without panicking.
func (t *Token) Valid() bool {
	return t.reason() == ""
}

func (t *Token) reason() string {
	if t == nil || t.w == nil {
		return "no callback token"
	}
	if t.w.closed.Load() {
		return fmt.Sprintf("token used after its %q callback returned", t.w.name)
	}
	if cur := thread.Current(); cur != t.w.tid {
		return fmt.Sprintf("token from %q used on thread %d, callback runs on thread %d", t.w.name, cur, t.w.tid)
	}
	return ""
}

// Require validates the scope's token for op and returns it. It panics with a
// *ContractViolation when called outside the window that issued the token.
func Require(s Scope, op string) *Token {
	var t *Token
	if s != nil {
		t = s.token()
	}
	if reason := t.reason(); reason != "" {
		t.Gate().Violate(op, "%s", reason)
	}
	return t
}
