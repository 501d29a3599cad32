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

package simhost

import (
	"sort"
	"time"

	"github.com/srediag/plugin-xplm/pkg/host"
)

type loop struct {
	id    host.FlightLoopID
	phase host.FlightLoopPhase
	cb    host.FlightLoopCallback

	active bool
	// due is a frame number when byFrame is set, otherwise simulated time.
	byFrame  bool
	dueFrame int64
	dueTime  time.Duration

	lastCall  time.Duration
	lastFrame int64
	calls     int
}

func (h *Host) CreateFlightLoop(phase host.FlightLoopPhase, cb host.FlightLoopCallback) host.FlightLoopID {
	l := &loop{
		id:        host.FlightLoopID(h.newRef()),
		phase:     phase,
		cb:        cb,
		lastCall:  h.Now(),
		lastFrame: h.Frame(),
	}
	h.loops.Set(l.id, l)
	return l.id
}

func (h *Host) ScheduleFlightLoop(id host.FlightLoopID, interval float32, relativeToNow bool) {
	l, ok := h.loops.Get(id)
	if !ok {
		return
	}
	base, baseFrame := h.Now(), h.Frame()
	if !relativeToNow {
		base, baseFrame = l.lastCall, l.lastFrame
	}
	l.schedule(interval, base, baseFrame)
}

func (l *loop) schedule(interval float32, base time.Duration, baseFrame int64) {
	switch {
	case interval == 0:
		l.active = false
	case interval < 0:
		l.active = true
		l.byFrame = true
		l.dueFrame = baseFrame + int64(-interval)
	default:
		l.active = true
		l.byFrame = false
		l.dueTime = base + time.Duration(float64(interval)*float64(time.Second))
	}
}

func (h *Host) DestroyFlightLoop(id host.FlightLoopID) {
	h.loops.Remove(id)
}

// Tick runs one frame of dt simulated time on the host thread, calling every
// flight loop that is due, before-flight-model loops first.
func (h *Host) Tick(dt time.Duration) {
	h.Do(func() {
		frame := h.frame.Add(1)
		now := time.Duration(h.elapsed.Add(int64(dt)))
		due := h.dueLoops(frame, now)
		for _, l := range due {
			// an earlier callback may have destroyed or rescheduled it
			if cur, ok := h.loops.Get(l.id); !ok || cur != l || !l.isDue(frame, now) {
				continue
			}
			sinceCall := float32((now - l.lastCall).Seconds())
			sinceLoop := float32(dt.Seconds())
			l.lastCall, l.lastFrame = now, frame
			l.calls++
			next := l.cb(sinceCall, sinceLoop, int32(frame))
			if _, ok := h.loops.Get(l.id); ok {
				l.schedule(next, now, frame)
			}
		}
	})
}

// Run ticks n frames of dt each.
func (h *Host) Run(n int, dt time.Duration) {
	for i := 0; i < n; i++ {
		h.Tick(dt)
	}
}

func (l *loop) isDue(frame int64, now time.Duration) bool {
	if !l.active {
		return false
	}
	if l.byFrame {
		return frame >= l.dueFrame
	}
	return now >= l.dueTime
}

func (h *Host) dueLoops(frame int64, now time.Duration) []*loop {
	var due []*loop
	for item := range h.loops.IterBuffered() {
		if item.Val.isDue(frame, now) {
			due = append(due, item.Val)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].phase != due[j].phase {
			return due[i].phase < due[j].phase
		}
		return due[i].id < due[j].id
	})
	return due
}

// FlightLoops returns the number of flight loops, active or not.
func (h *Host) FlightLoops() int {
	return h.loops.Count()
}

// LoopCalls returns how many times the flight loop has been called.
func (h *Host) LoopCalls(id host.FlightLoopID) int {
	if l, ok := h.loops.Get(id); ok {
		return l.calls
	}
	return 0
}
