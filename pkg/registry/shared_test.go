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
	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

func (s *RegistryTestSuite) TestSharedDataNotifiesOnWrite() {
	var (
		sd   *Shared
		seen []int32
	)
	s.within(func(tok *gate.Token) {
		var err error
		sd, err = Share[int32](s.reg, tok, "demo/shared/mode", func(tok *gate.Token, d *DataRef) {
			v, err := d.GetInt(tok)
			s.NoError(err)
			seen = append(seen, v)
		})
		s.Require().NoError(err)
		s.Equal(KindSharedData, sd.Kind())
		s.Equal(host.TypeInt, sd.Type(tok))
	})
	ref := s.host.FindDataRef("demo/shared/mode")
	s.Require().NotZero(ref)
	s.True(s.host.CanWriteDataRef(ref))
	s.Equal(1, s.host.Shares("demo/shared/mode"))

	// another plugin writes
	s.host.SetDatai(ref, 4)
	s.Equal([]int32{4}, seen)

	// our own write is reported too, in a nested window
	s.within(func(tok *gate.Token) {
		d, err := sd.DataRef(tok)
		s.Require().NoError(err)
		s.NoError(d.SetInt(tok, 9))
	})
	s.Equal([]int32{4, 9}, seen)
	s.Equal(2, s.reg.Live(KindDataRef)+s.reg.Live(KindSharedData))
}

func (s *RegistryTestSuite) TestSharedDataWrongType() {
	s.host.Define(simhost.DataRefSpec{Name: "demo/shared/flaps", Types: host.TypeFloat, Writable: true})
	s.within(func(tok *gate.Token) {
		_, err := Share[int32](s.reg, tok, "demo/shared/flaps", nil)
		s.ErrorIs(err, ErrTypeMismatch)
		_, err = Share[float32](s.reg, tok, "demo/shared/flaps", nil)
		s.NoError(err)
		_, err = Share[float32](s.reg, tok, "/demo/shared", nil)
		s.ErrorIs(err, ErrInvalidName)
	})
	s.Equal(1, s.host.Shares("demo/shared/flaps"))
}

func (s *RegistryTestSuite) TestSharedDataReleaseKeepsValue() {
	calls := 0
	var sd *Shared
	s.within(func(tok *gate.Token) {
		var err error
		sd, err = Share[float64](s.reg, tok, "demo/shared/qnh", func(*gate.Token, *DataRef) { calls++ })
		s.Require().NoError(err)
		d, err := sd.DataRef(tok)
		s.Require().NoError(err)
		s.NoError(d.SetDouble(tok, 29.92))
	})
	s.Equal(1, calls)

	s.within(func(tok *gate.Token) { sd.Release(tok) })
	s.Zero(s.reg.Len())
	s.Zero(s.host.Shares("demo/shared/qnh"))

	ref := s.host.FindDataRef("demo/shared/qnh")
	s.InDelta(29.92, s.host.GetDatad(ref), 1e-9)
	s.host.SetDatad(ref, 30.01)
	s.Equal(1, calls)

	v := catch(func() { s.within(func(tok *gate.Token) { _, _ = sd.DataRef(tok) }) })
	s.Require().NotNil(v)
	s.Contains(v.Reason, "used after release")
}

func (s *RegistryTestSuite) TestSharedDataStopsAtClose() {
	calls := 0
	s.within(func(tok *gate.Token) {
		_, err := Share[[]byte](s.reg, tok, "demo/shared/tail", func(*gate.Token, *DataRef) { calls++ })
		s.Require().NoError(err)
	})
	s.within(func(tok *gate.Token) { s.reg.Close(tok) })
	s.Zero(s.host.Shares("demo/shared/tail"))
	s.host.SetDatab(s.host.FindDataRef("demo/shared/tail"), []byte("N1"), 0)
	s.Zero(calls)
}
