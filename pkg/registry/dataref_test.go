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
	"errors"

	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

func (s *RegistryTestSuite) TestFloatRoundTrip() {
	s.host.Define(simhost.DataRefSpec{Name: "sim/test/x", Types: host.TypeFloat, Writable: true})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/test/x")
		s.Require().NoError(err)
		s.Equal("sim/test/x", d.Name())
		s.Equal(KindDataRef, d.Kind())
		s.Equal(host.TypeFloat, d.Types(tok))
		s.True(d.Writable(tok))

		s.NoError(d.SetFloat(tok, 3.14))
		v, err := d.GetFloat(tok)
		s.NoError(err)
		s.InDelta(3.14, v, 1e-6)
	})
}

func (s *RegistryTestSuite) TestUnknownNameRegistersNothing() {
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/test/missing")
		s.Nil(d)
		s.ErrorIs(err, ErrNotFound)

		var rerr *Error
		if s.True(errors.As(err, &rerr)) {
			s.Equal("find dataref", rerr.Op)
			s.Equal("sim/test/missing", rerr.Name)
		}

		c, err := s.reg.FindCommand(tok, "sim/test/missing_command")
		s.Nil(c)
		s.ErrorIs(err, ErrNotFound)
	})
	s.Equal(0, s.reg.Len())
}

func (s *RegistryTestSuite) TestLookupIsCaseExact() {
	s.host.Define(simhost.DataRefSpec{Name: "sim/test/x", Types: host.TypeFloat})
	s.within(func(tok *gate.Token) {
		_, err := s.reg.FindDataRef(tok, "sim/test/X")
		s.ErrorIs(err, ErrNotFound)
		_, err = s.reg.FindDataRef(tok, "SIM/test/x")
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *RegistryTestSuite) TestInvalidNames() {
	s.within(func(tok *gate.Token) {
		for _, name := range []string{"", "/sim/x", "sim/x/", "sim//x", "sim/x\x00y", " sim/x"} {
			_, err := s.reg.FindDataRef(tok, name)
			s.ErrorIs(err, ErrInvalidName, "name %q", name)
		}
	})
	s.NoError(ValidateName("sim/cockpit2/gauges/indicators/airspeed_kts_pilot"))
}

func (s *RegistryTestSuite) TestTypeMismatchLeavesHostUntouched() {
	ref := s.host.Define(simhost.DataRefSpec{Name: "sim/test/count", Types: host.TypeInt, Writable: true, Int: 7})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/test/count")
		s.Require().NoError(err)

		s.ErrorIs(d.SetFloat(tok, 1.5), ErrTypeMismatch)
		s.ErrorIs(d.SetDouble(tok, 1.5), ErrTypeMismatch)
		s.ErrorIs(d.SetIntArray(tok, []int32{1}, 0), ErrTypeMismatch)
		s.ErrorIs(d.SetBytes(tok, []byte("x"), 0), ErrTypeMismatch)
		_, err = d.GetDouble(tok)
		s.ErrorIs(err, ErrTypeMismatch)
		_, err = d.GetString(tok)
		s.ErrorIs(err, ErrTypeMismatch)

		v, err := d.GetInt(tok)
		s.NoError(err)
		s.Equal(int32(7), v)
	})
	s.Equal(int32(7), s.host.GetDatai(ref))
}

func (s *RegistryTestSuite) TestReadOnlyWriteRejected() {
	ref := s.host.Define(simhost.DataRefSpec{Name: "sim/time/total_running_time_sec", Types: host.TypeFloat, Float: 12})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/time/total_running_time_sec")
		s.Require().NoError(err)
		s.False(d.Writable(tok))
		s.ErrorIs(d.SetFloat(tok, 0), ErrReadOnly)
	})
	s.Equal(float32(12), s.host.GetDataf(ref))
}

func (s *RegistryTestSuite) TestMultiTypeDataRef() {
	s.host.Define(simhost.DataRefSpec{
		Name:     "sim/test/gear",
		Types:    host.TypeInt | host.TypeFloat,
		Writable: true,
		Int:      1,
		Float:    1,
	})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/test/gear")
		s.Require().NoError(err)
		i, err := d.GetInt(tok)
		s.NoError(err)
		s.Equal(int32(1), i)
		f, err := d.GetFloat(tok)
		s.NoError(err)
		s.Equal(float32(1), f)
		_, err = d.GetDouble(tok)
		s.ErrorIs(err, ErrTypeMismatch)
	})
}

func (s *RegistryTestSuite) TestIntArray() {
	ref := s.host.Define(simhost.DataRefSpec{
		Name:     "sim/test/ints",
		Types:    host.TypeIntArray,
		Writable: true,
		Ints:     []int32{1, 2, 3, 4},
	})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/test/ints")
		s.Require().NoError(err)

		n, err := d.Len(tok)
		s.NoError(err)
		s.Equal(4, n)

		out := make([]int32, 2)
		n, err = d.GetIntArray(tok, out, 1)
		s.NoError(err)
		s.Equal(2, n)
		s.Equal([]int32{2, 3}, out)

		_, err = d.GetIntArray(tok, out, 5)
		s.ErrorIs(err, ErrOutOfRange)
		_, err = d.GetIntArray(tok, out, -1)
		s.ErrorIs(err, ErrOutOfRange)

		s.NoError(d.SetIntArray(tok, []int32{9}, 3))
		s.ErrorIs(d.SetIntArray(tok, []int32{9, 9}, 3), ErrOutOfRange)
	})
	out := make([]int32, 4)
	s.host.GetDatavi(ref, out, 0)
	s.Equal([]int32{1, 2, 3, 9}, out)
}

func (s *RegistryTestSuite) TestFloatArray() {
	s.host.Define(simhost.DataRefSpec{
		Name:   "sim/test/floats",
		Types:  host.TypeFloatArray,
		Floats: []float32{0.5, 1.5},
	})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/test/floats")
		s.Require().NoError(err)
		out := make([]float32, 8)
		n, err := d.GetFloatArray(tok, out, 0)
		s.NoError(err)
		s.Equal([]float32{0.5, 1.5}, out[:n])
		s.ErrorIs(d.SetFloatArray(tok, []float32{1}, 0), ErrReadOnly)
	})
}

func (s *RegistryTestSuite) TestStrings() {
	s.host.Define(simhost.DataRefSpec{
		Name:     "sim/aircraft/view/acf_tailnum",
		Types:    host.TypeData,
		Writable: true,
		Bytes:    make([]byte, 8),
	})
	s.within(func(tok *gate.Token) {
		d, err := s.reg.FindDataRef(tok, "sim/aircraft/view/acf_tailnum")
		s.Require().NoError(err)

		v, err := d.GetString(tok)
		s.NoError(err)
		s.Empty(v)

		s.NoError(d.SetString(tok, "N172SP"))
		v, err = d.GetString(tok)
		s.NoError(err)
		s.Equal("N172SP", v)

		s.ErrorIs(d.SetString(tok, "N1\x00"), ErrInvalidValue)
		s.ErrorIs(d.SetString(tok, "N123456789"), ErrOutOfRange)

		buf := make([]byte, 3)
		n, err := d.GetBytes(tok, buf, 1)
		s.NoError(err)
		s.Equal(3, n)
		s.Equal("172", string(buf))
	})
}
