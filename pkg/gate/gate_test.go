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
package gate

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// catch runs fn and returns the contract violation it panicked with, if any.
func catch(fn func()) (v *ContractViolation) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if v, ok = AsViolation(r); !ok {
				panic(r)
			}
		}
	}()
	fn()
	return nil
}

type GateTestSuite struct {
	suite.Suite
	gate       *Gate
	violations []*ContractViolation
	entered    []string
}

func (s *GateTestSuite) SetupTest() {
	s.violations = nil
	s.entered = nil
	s.gate = New(Options{
		OnViolation: func(v *ContractViolation) { s.violations = append(s.violations, v) },
		OnEnter:     func(name string) { s.entered = append(s.entered, name) },
	})
}

func (s *GateTestSuite) TestTokenValidInsideWindow() {
	s.gate.Enter("start", func(tok *Token) {
		s.True(tok.Valid())
		s.Equal("start", tok.Callback())
		s.Same(s.gate, tok.Gate())
		s.True(s.gate.Active())
		s.Equal(1, s.gate.Depth())
		s.Same(tok, Require(tok, "read"))
	})
	s.False(s.gate.Active())
	s.Equal([]string{"start"}, s.entered)
	s.Empty(s.violations)
}

func (s *GateTestSuite) TestTokenExpiresWithWindow() {
	var kept *Token
	s.gate.Enter("enable", func(tok *Token) { kept = tok })

	s.False(kept.Valid())
	v := catch(func() { Require(kept, "dataref write") })
	s.Require().NotNil(v)
	s.Equal("dataref write", v.Op)
	s.Contains(v.Reason, "after its \"enable\" callback returned")
	s.Len(s.violations, 1)
}

func (s *GateTestSuite) TestMissingTokenPanics() {
	v := catch(func() { Require(nil, "find") })
	s.Require().NotNil(v)
	s.Equal("no callback token", v.Reason)

	var typedNil *Token
	s.NotNil(catch(func() { Require(typedNil, "find") }))
	s.NotNil(catch(func() { Require(&Token{}, "find") }))
	// No gate to report to, so the observer never sees these.
	s.Empty(s.violations)
}

func (s *GateTestSuite) TestTokenEscapingToGoroutine() {
	s.gate.Enter("flight loop", func(tok *Token) {
		done := make(chan *ContractViolation)
		go func() {
			done <- catch(func() { Require(tok, "dataref read") })
		}()
		v := <-done
		s.Require().NotNil(v)
		s.Contains(v.Reason, "used on thread")
		// Still fine on the callback thread.
		s.True(tok.Valid())
	})
}

func (s *GateTestSuite) TestNestedWindows() {
	s.gate.Enter("command", func(outer *Token) {
		var inner *Token
		s.gate.Enter("menu", func(tok *Token) {
			inner = tok
			s.Equal(2, s.gate.Depth())
			s.True(outer.Valid())
			s.True(inner.Valid())
		})
		s.Equal(1, s.gate.Depth())
		s.True(outer.Valid())
		s.False(inner.Valid())
	})
	s.Equal(0, s.gate.Depth())
}

func (s *GateTestSuite) TestPanicClosesWindow() {
	var kept *Token
	boom := errors.New("boom")
	s.PanicsWithError("boom", func() {
		s.gate.Enter("disable", func(tok *Token) {
			kept = tok
			panic(boom)
		})
	})
	s.False(s.gate.Active())
	s.False(kept.Valid())
}

func (s *GateTestSuite) TestViolationMessage() {
	v := &ContractViolation{Op: "enter", Reason: "wrong thread"}
	s.Equal("xplm: contract violation in enter: wrong thread", v.Error())

	got, ok := AsViolation(v)
	s.True(ok)
	s.Same(v, got)
	_, ok = AsViolation("nope")
	s.False(ok)
}

func TestGateTestSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

func TestPinnedGateRejectsForeignThread(t *testing.T) {
	var seen *ContractViolation
	g := New(Options{PinThread: true, OnViolation: func(v *ContractViolation) { seen = v }})

	// Keep this goroutine on the pinned thread so the second one cannot land there.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	g.Enter("start", func(*Token) {})
	g.Enter("enable", func(*Token) {})

	done := make(chan *ContractViolation)
	go func() {
		done <- catch(func() { g.Enter("rogue", func(*Token) {}) })
	}()
	v := <-done
	require.NotNil(t, v)
	assert.Equal(t, "enter rogue", v.Op)
	assert.Same(t, v, seen)
	assert.False(t, g.Active())
}
