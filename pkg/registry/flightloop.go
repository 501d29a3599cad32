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

package registry

import (
	"fmt"
	"time"

	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// LoopResult tells the host when to call a flight loop next. It is encoded as
// the host's float interval: positive seconds, negative loops, zero to stop.
type LoopResult struct {
	interval float32
}

var (
	// NextLoop runs the callback again on the next frame.
	NextLoop = LoopResult{interval: -1}
	// Deactivate stops calling the callback until it is scheduled again.
	Deactivate = LoopResult{}
)

// After schedules the next call d from now. Durations below one millisecond
// mean the next loop.
func After(d time.Duration) LoopResult {
	if d < time.Millisecond {
		return NextLoop
	}
	return LoopResult{interval: float32(d.Seconds())}
}

// AfterLoops schedules the next call n frames from now. n below one means the
// next loop.
func AfterLoops(n int) LoopResult {
	if n < 1 {
		return NextLoop
	}
	return LoopResult{interval: -float32(n)}
}

// Interval returns the value handed to the host.
func (l LoopResult) Interval() float32 {
	return l.interval
}

func (l LoopResult) String() string {
	switch {
	case l.interval == 0:
		return "deactivate"
	case l.interval < 0:
		return fmt.Sprintf("%g loops", -l.interval)
	}
	return fmt.Sprintf("%gs", l.interval)
}

// LoopState is what the host reports on each flight loop call.
type LoopState struct {
	SinceLastCall time.Duration
	SinceLastLoop time.Duration
	Counter       int32
}

// FlightLoopFunc is a flight loop callback.
type FlightLoopFunc func(tok *gate.Token, st LoopState) LoopResult

// FlightLoop is a callback the host runs once per frame or on a timer.
type FlightLoop struct {
	handle
	id host.FlightLoopID
	fn FlightLoopFunc
}

// NewFlightLoop creates a deactivated flight loop. Schedule it to start.
func (r *Registry) NewFlightLoop(s gate.Scope, name string, phase host.FlightLoopPhase, fn FlightLoopFunc) *FlightLoop {
	r.require(s, "new flight loop")
	fl := &FlightLoop{fn: fn}
	fl.id = r.host.CreateFlightLoop(phase, func(sinceCall, sinceLoop float32, counter int32) float32 {
		res := Deactivate
		ok := r.invoke("flight loop "+name, func(tok *gate.Token) {
			res = fl.fn(tok, LoopState{
				SinceLastCall: seconds(sinceCall),
				SinceLastLoop: seconds(sinceLoop),
				Counter:       counter,
			})
		})
		if !ok {
			return 0
		}
		return res.interval
	})
	h := r.host
	fl.handle = r.add(KindFlightLoop, name, fl, func() { h.DestroyFlightLoop(fl.id) })
	return fl
}

func seconds(s float32) time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// Schedule sets the next call. relativeToNow measures the interval from now
// instead of from the last call.
func (fl *FlightLoop) Schedule(s gate.Scope, next LoopResult, relativeToNow bool) {
	fl.check(s, "flight loop schedule")
	fl.reg.host.ScheduleFlightLoop(fl.id, next.interval, relativeToNow)
}

// ScheduleImmediate runs the loop on the next frame.
func (fl *FlightLoop) ScheduleImmediate(s gate.Scope) {
	fl.Schedule(s, NextLoop, true)
}

// ScheduleAfterLoops runs the loop n frames from now.
func (fl *FlightLoop) ScheduleAfterLoops(s gate.Scope, n int) {
	fl.Schedule(s, AfterLoops(n), true)
}

// ScheduleAfter runs the loop d from now.
func (fl *FlightLoop) ScheduleAfter(s gate.Scope, d time.Duration) {
	fl.Schedule(s, After(d), true)
}

// Deactivate stops the loop without releasing it.
func (fl *FlightLoop) Deactivate(s gate.Scope) {
	fl.Schedule(s, Deactivate, true)
}
