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

package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/registry"
)

type DispatchTestSuite struct {
	suite.Suite
	host *simhost.Host
	gate *gate.Gate
	reg  *registry.Registry
}

func (s *DispatchTestSuite) SetupTest() {
	s.host = simhost.New(simhost.DefaultOptions())
	s.gate = gate.New(gate.Options{})
	s.reg = registry.New(s.host, s.gate, registry.Options{})
}

func (s *DispatchTestSuite) TearDownTest() {
	s.host.Close()
}

func (s *DispatchTestSuite) within(fn func(tok *gate.Token)) {
	s.gate.Enter("test", fn)
}

func (s *DispatchTestSuite) newDispatcher(workers, backlog int) *Dispatcher {
	var d *Dispatcher
	s.within(func(tok *gate.Token) {
		var err error
		d, err = New(s.reg, tok, Options{Workers: workers, Backlog: backlog})
		s.Require().NoError(err)
	})
	return d
}

// frames ticks the host until cond holds or a second passes.
func (s *DispatchTestSuite) frames(cond func() bool) {
	s.Eventually(func() bool {
		s.host.Run(1, 10*time.Millisecond)
		return cond()
	}, time.Second, time.Millisecond)
}

func (s *DispatchTestSuite) TestResultArrivesOnLaterFrame() {
	d := s.newDispatcher(2, 4)
	type outcome struct {
		v      any
		err    error
		onHost bool
	}
	got := make(chan outcome, 1)
	s.within(func(tok *gate.Token) {
		err := d.Submit(tok, "double", func(context.Context) (any, error) {
			return 21 * 2, nil
		}, func(tok *gate.Token, v any, err error) {
			got <- outcome{v: v, err: err, onHost: s.host.OnHostThread()}
		})
		s.NoError(err)
		s.Len(got, 0)
	})
	s.frames(func() bool { return len(got) == 1 })
	o := <-got
	s.NoError(o.err)
	s.Equal(42, o.v)
	s.True(o.onHost)
	s.Zero(d.Pending())
}

func (s *DispatchTestSuite) TestErrorsAndPanicsReachDone() {
	d := s.newDispatcher(2, 4)
	errs := make(chan error, 2)
	done := func(_ *gate.Token, _ any, err error) { errs <- err }
	s.within(func(tok *gate.Token) {
		s.NoError(d.Submit(tok, "fail", func(context.Context) (any, error) {
			return nil, errors.New("disk full")
		}, done))
		s.NoError(d.Submit(tok, "panic", func(context.Context) (any, error) {
			panic("worker exploded")
		}, done))
	})
	s.frames(func() bool { return len(errs) == 2 })
	var msgs []string
	for i := 0; i < 2; i++ {
		msgs = append(msgs, (<-errs).Error())
	}
	s.ElementsMatch([]string{"disk full", "dispatch: work panicked: worker exploded"}, msgs)
}

func (s *DispatchTestSuite) TestBacklogFull() {
	d := s.newDispatcher(1, 1)
	release := make(chan struct{})
	s.within(func(tok *gate.Token) {
		s.NoError(d.Submit(tok, "slow", func(context.Context) (any, error) {
			<-release
			return nil, nil
		}, nil))
		err := d.Submit(tok, "second", func(context.Context) (any, error) { return nil, nil }, nil)
		s.ErrorIs(err, ErrBusy)
	})
	close(release)
	s.frames(func() bool { return d.Pending() == 0 })
}

func (s *DispatchTestSuite) TestCloseCancelsWork() {
	d := s.newDispatcher(1, 2)
	cancelled := make(chan struct{})
	s.within(func(tok *gate.Token) {
		s.NoError(d.Submit(tok, "wait", func(ctx context.Context) (any, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}, func(*gate.Token, any, error) {
			s.Fail("done after close")
		}))
		s.NoError(d.Close(tok, time.Second))
		s.ErrorIs(d.Submit(tok, "late", func(context.Context) (any, error) { return nil, nil }, nil), ErrClosed)
	})
	<-cancelled
	s.host.Run(3, 10*time.Millisecond)
	s.Zero(s.reg.Live(registry.KindFlightLoop))
}

func (s *DispatchTestSuite) TestSubmitOutsideWindowPanics() {
	d := s.newDispatcher(1, 1)
	s.Panics(func() {
		_ = d.Submit(nil, "x", func(context.Context) (any, error) { return nil, nil }, nil)
	})
}

func TestDispatchTestSuite(t *testing.T) {
	suite.Run(t, new(DispatchTestSuite))
}
