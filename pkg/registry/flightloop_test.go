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
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"

	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

func TestLoopResultEncoding(t *testing.T) {
	assert.Equal(t, float32(-1), NextLoop.Interval())
	assert.Equal(t, float32(0), Deactivate.Interval())
	assert.Equal(t, float32(2), After(2*time.Second).Interval())
	assert.InDelta(t, 0.25, After(250*time.Millisecond).Interval(), 1e-6)
	assert.Equal(t, NextLoop, After(0))
	assert.Equal(t, float32(-3), AfterLoops(3).Interval())
	assert.Equal(t, NextLoop, AfterLoops(0))

	assert.Equal(t, "deactivate", Deactivate.String())
	assert.Equal(t, "3 loops", AfterLoops(3).String())
	assert.Equal(t, "0.5s", After(500*time.Millisecond).String())
}

func (s *RegistryTestSuite) TestFlightLoopRunsEachFrame() {
	var (
		counters []int32
		valid    = true
	)
	var fl *FlightLoop
	s.within(func(tok *gate.Token) {
		fl = s.reg.NewFlightLoop(tok, "count", host.AfterFlightModel, func(tok *gate.Token, st LoopState) LoopResult {
			valid = valid && tok.Valid()
			counters = append(counters, st.Counter)
			if len(counters) == 3 {
				return Deactivate
			}
			return NextLoop
		})
	})
	// created deactivated
	s.host.Run(2, 50*time.Millisecond)
	s.Empty(counters)

	s.within(func(tok *gate.Token) { fl.ScheduleImmediate(tok) })
	s.host.Run(5, 50*time.Millisecond)
	s.Equal([]int32{3, 4, 5}, counters)
	s.True(valid)
}

func (s *RegistryTestSuite) TestFlightLoopTimer() {
	var (
		calls int
		since time.Duration
	)
	s.within(func(tok *gate.Token) {
		fl := s.reg.NewFlightLoop(tok, "timer", host.BeforeFlightModel, func(_ *gate.Token, st LoopState) LoopResult {
			calls++
			since = st.SinceLastCall
			return After(time.Second)
		})
		fl.ScheduleAfter(tok, time.Second)
	})
	s.host.Run(9, 100*time.Millisecond)
	s.Equal(0, calls)
	s.host.Run(1, 100*time.Millisecond)
	s.Equal(1, calls)
	s.InDelta(time.Second.Seconds(), since.Seconds(), 0.01)
	s.host.Run(10, 100*time.Millisecond)
	s.Equal(2, calls)
}

func (s *RegistryTestSuite) TestFlightLoopEveryNFrames() {
	calls := 0
	s.within(func(tok *gate.Token) {
		fl := s.reg.NewFlightLoop(tok, "every3", host.BeforeFlightModel, func(*gate.Token, LoopState) LoopResult {
			calls++
			return AfterLoops(3)
		})
		fl.ScheduleAfterLoops(tok, 3)
	})
	s.host.Run(9, 10*time.Millisecond)
	s.Equal(3, calls)
}

func (s *RegistryTestSuite) TestDeferredLookupResolves() {
	var (
		got   float32
		found error
		done  int
	)
	s.within(func(tok *gate.Token) {
		_, err := s.reg.FindDataRefDeferred(tok, "other/plugin/value",
			backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 10),
			func(tok *gate.Token, d *DataRef, err error) {
				done++
				found = err
				if err == nil {
					got, _ = d.GetFloat(tok)
				}
			})
		s.Require().NoError(err)
	})

	s.host.Run(3, 100*time.Millisecond)
	s.Equal(0, done)

	s.host.Define(simhost.DataRefSpec{Name: "other/plugin/value", Types: host.TypeFloat, Float: 42})
	s.host.Run(3, 100*time.Millisecond)
	s.Equal(1, done)
	s.NoError(found)
	s.Equal(float32(42), got)

	s.host.Run(5, 100*time.Millisecond)
	s.Equal(1, done)
}

func (s *RegistryTestSuite) TestDeferredLookupGivesUp() {
	var (
		done  int
		found error
	)
	s.within(func(tok *gate.Token) {
		_, err := s.reg.FindDataRefDeferred(tok, "other/plugin/never",
			backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 2),
			func(_ *gate.Token, d *DataRef, err error) {
				done++
				found = err
				s.Nil(d)
			})
		s.Require().NoError(err)

		_, err = s.reg.FindDataRefDeferred(tok, "bad//name", nil, nil)
		s.ErrorIs(err, ErrInvalidName)
	})

	s.host.Run(20, 100*time.Millisecond)
	s.Equal(1, done)
	s.ErrorIs(found, ErrNotFound)
}

func (s *RegistryTestSuite) TestDefaultLookupFollowsSimulatedTime() {
	var (
		found error
		at    time.Duration
	)
	s.within(func(tok *gate.Token) {
		_, err := s.reg.FindDataRefDeferred(tok, "other/plugin/late", nil, func(_ *gate.Token, _ *DataRef, err error) {
			found = err
			at = s.host.Now()
		})
		s.Require().NoError(err)
	})

	// 20 simulated seconds go by in a few milliseconds of wall time
	s.host.Run(20, time.Second)
	s.NoError(found)
	s.Zero(at)

	s.host.Run(20, time.Second)
	s.ErrorIs(found, ErrNotFound)
	s.Greater(at, 20*time.Second)
	s.LessOrEqual(at, 40*time.Second)
}

func (s *RegistryTestSuite) TestClockReadsHostTime() {
	start := s.reg.Clock().Now()
	s.host.Run(3, 500*time.Millisecond)
	s.Equal(1500*time.Millisecond, s.reg.Clock().Now().Sub(start))
}
