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

// Package dispatch runs blocking work off the host thread and delivers the
// results back inside a flight loop, where SDK calls are legal again.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/registry"
)

var (
	// ErrBusy is returned when every worker is busy or the backlog is full.
	ErrBusy = errors.New("dispatch: busy")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dispatch: closed")
)

// Work runs on a pool goroutine. It must not touch the SDK.
type Work func(ctx context.Context) (any, error)

// Done runs on the host thread with the result of Work.
type Done func(tok *gate.Token, v any, err error)

// Options configures a Dispatcher.
type Options struct {
	Workers int
	Backlog int
	Logger  *logging.Logger
}

type result struct {
	name string
	v    any
	err  error
	done Done
}

// Dispatcher owns a worker pool and the flight loop that drains its results.
type Dispatcher struct {
	pool    *ants.Pool
	results *queue.Queue
	loop    *registry.FlightLoop
	log     *logging.Logger
	backlog int64

	ctx     context.Context
	cancel  context.CancelFunc
	pending atomic.Int64
	closed  atomic.Bool
}

// New creates a dispatcher whose results are delivered through r.
func New(r *registry.Registry, s gate.Scope, opts Options) (*Dispatcher, error) {
	gate.Require(s, "dispatch new")
	if opts.Workers < 1 {
		return nil, fmt.Errorf("dispatch: workers must be positive, got %d", opts.Workers)
	}
	if opts.Backlog < 1 {
		opts.Backlog = opts.Workers
	}
	log := opts.Logger
	if log == nil {
		log = logging.New("dispatch", r.Host())
	}
	d := &Dispatcher{
		results: queue.New(int64(opts.Backlog)),
		log:     log,
		backlog: int64(opts.Backlog),
	}
	pool, err := ants.NewPool(opts.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			d.log.Errorf("worker panicked: %v", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: create pool: %w", err)
	}
	d.pool = pool
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.loop = r.NewFlightLoop(s, "dispatch", host.AfterFlightModel, d.drain)
	return d, nil
}

// Submit queues work. done is called on a later frame, never from inside
// Submit.
func (d *Dispatcher) Submit(s gate.Scope, name string, work Work, done Done) error {
	gate.Require(s, "dispatch submit")
	if d.closed.Load() {
		return ErrClosed
	}
	if d.pending.Add(1) > d.backlog {
		d.pending.Add(-1)
		return ErrBusy
	}
	err := d.pool.Submit(func() {
		v, err := run(d.ctx, work)
		// Put only fails once Close disposed the queue and reset pending.
		_ = d.results.Put(result{name: name, v: v, err: err, done: done})
	})
	if err != nil {
		d.pending.Add(-1)
		if errors.Is(err, ants.ErrPoolOverload) {
			return ErrBusy
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrClosed
		}
		return fmt.Errorf("dispatch: submit %s: %w", name, err)
	}
	d.loop.Schedule(s, registry.NextLoop, true)
	return nil
}

func run(ctx context.Context, work Work) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: work panicked: %v", r)
		}
	}()
	return work(ctx)
}

// Pending returns the number of submitted jobs whose Done has not run yet.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Running returns the number of busy workers.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

func (d *Dispatcher) drain(tok *gate.Token, _ registry.LoopState) registry.LoopResult {
	if n := d.results.Len(); n > 0 {
		items, err := d.results.Get(n)
		if err != nil {
			return registry.Deactivate
		}
		for _, it := range items {
			res := it.(result)
			d.pending.Add(-1)
			if res.done != nil {
				res.done(tok, res.v, res.err)
			} else if res.err != nil {
				d.log.Warnf("%s: %v", res.name, res.err)
			}
		}
	}
	if d.pending.Load() > 0 {
		return registry.NextLoop
	}
	return registry.Deactivate
}

// Close cancels running work and drops results not yet delivered. It waits
// up to timeout for workers to return.
func (d *Dispatcher) Close(s gate.Scope, timeout time.Duration) error {
	gate.Require(s, "dispatch close")
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.cancel()
	d.loop.Release(s)
	dropped := d.results.Dispose()
	if len(dropped) > 0 {
		d.log.Debugf("dropped %d undelivered results", len(dropped))
	}
	d.pending.Store(0)
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}
