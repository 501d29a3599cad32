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
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

func (s *RegistryTestSuite) TestOwnedCommandReceivesPhases() {
	var (
		phases []host.CommandPhase
		valid  []bool
	)
	s.within(func(tok *gate.Token) {
		_, err := s.reg.CreateCommand(tok, "demo/toggle", "Toggle the demo", CommandHandlerFunc(
			func(tok *gate.Token, phase host.CommandPhase) bool {
				phases = append(phases, phase)
				valid = append(valid, tok.Valid())
				return false
			}))
		s.Require().NoError(err)
	})

	s.True(s.host.RunCommand("demo/toggle"))
	s.Equal([]host.CommandPhase{host.CommandBegin, host.CommandEnd}, phases)
	s.Equal([]bool{true, true}, valid)
	s.Zero(s.host.Fired("demo/toggle", host.CommandBegin))

	phases = nil
	s.True(s.host.HoldCommand("demo/toggle", 2))
	s.Equal([]host.CommandPhase{
		host.CommandBegin, host.CommandContinue, host.CommandContinue, host.CommandEnd,
	}, phases)
}

func (s *RegistryTestSuite) TestTriggerReentersHandler() {
	depths := []int{}
	s.within(func(tok *gate.Token) {
		c, err := s.reg.CreateCommand(tok, "demo/reenter", "", CommandHandlerFunc(
			func(tok *gate.Token, phase host.CommandPhase) bool {
				depths = append(depths, s.gate.Depth())
				return true
			}))
		s.Require().NoError(err)
		c.Trigger(tok)
		c.Begin(tok)
		c.End(tok)
		s.True(tok.Valid())
	})
	s.Equal([]int{2, 2, 2, 2}, depths)
	s.Equal(2, s.host.Fired("demo/reenter", host.CommandBegin))
}

func (s *RegistryTestSuite) TestCreateExistingCommand() {
	s.host.DefineCommand("sim/operation/pause_toggle", "Pause")
	s.within(func(tok *gate.Token) {
		_, err := s.reg.CreateCommand(tok, "sim/operation/pause_toggle", "", CommandHandlerFunc(
			func(*gate.Token, host.CommandPhase) bool { return true }))
		s.ErrorIs(err, ErrExists)
		_, err = s.reg.CreateCommand(tok, "demo/bad", "desc\x00", nil)
		s.ErrorIs(err, ErrInvalidValue)
	})
	s.Equal(0, s.reg.Len())
}

func (s *RegistryTestSuite) TestInterceptBlocksHost() {
	s.host.DefineCommand("sim/operation/pause_toggle", "Pause")
	var in *Interception
	seen := 0
	s.within(func(tok *gate.Token) {
		c, err := s.reg.FindCommand(tok, "sim/operation/pause_toggle")
		s.Require().NoError(err)
		in = s.reg.Intercept(tok, c, true, CommandHandlerFunc(
			func(*gate.Token, host.CommandPhase) bool {
				seen++
				return false
			}))
		s.Same(c, in.Command())
	})

	s.True(s.host.RunCommand("sim/operation/pause_toggle"))
	s.Equal(2, seen)
	s.Zero(s.host.Fired("sim/operation/pause_toggle", host.CommandBegin))

	s.within(func(tok *gate.Token) { in.Release(tok) })
	s.Equal(0, s.host.Handlers("sim/operation/pause_toggle"))

	s.True(s.host.RunCommand("sim/operation/pause_toggle"))
	s.Equal(2, seen)
	s.Equal(1, s.host.Fired("sim/operation/pause_toggle", host.CommandBegin))
}
