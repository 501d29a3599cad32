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

func (s *RegistryTestSuite) TestPublishedValueVisibleToHost() {
	var o *Owned[float32]
	s.within(func(tok *gate.Token) {
		var err error
		o, err = Publish(s.reg, tok, "demo/owned/speed", true, float32(10))
		s.Require().NoError(err)
		s.Equal(host.TypeFloat, o.Type())
		s.Equal(KindOwnedDataRef, o.Kind())
	})

	ref := s.host.FindDataRef("demo/owned/speed")
	s.Require().NotZero(ref)
	s.Equal(host.TypeFloat, s.host.DataRefTypes(ref))
	s.True(s.host.CanWriteDataRef(ref))
	s.Equal(float32(10), s.host.GetDataf(ref))

	// another plugin writes through the host
	s.host.SetDataf(ref, 20)
	s.within(func(tok *gate.Token) {
		s.Equal(float32(20), o.Get(tok))
		o.Set(tok, 30)
	})
	s.Equal(float32(30), s.host.GetDataf(ref))
}

func (s *RegistryTestSuite) TestPublishedReadOnlyIgnoresHostWrites() {
	s.within(func(tok *gate.Token) {
		_, err := Publish(s.reg, tok, "demo/owned/count", false, int32(3))
		s.Require().NoError(err)
	})
	ref := s.host.FindDataRef("demo/owned/count")
	s.False(s.host.CanWriteDataRef(ref))
	s.host.SetDatai(ref, 99)
	s.Equal(int32(3), s.host.GetDatai(ref))
}

func (s *RegistryTestSuite) TestPublishedArrays() {
	var o *Owned[[]int32]
	s.within(func(tok *gate.Token) {
		var err error
		o, err = Publish(s.reg, tok, "demo/owned/ints", true, []int32{1, 2, 3})
		s.Require().NoError(err)
		_, err = Publish(s.reg, tok, "demo/owned/name", false, []byte("ok\x00"))
		s.Require().NoError(err)
	})
	ref := s.host.FindDataRef("demo/owned/ints")
	s.Equal(3, s.host.GetDatavi(ref, nil, 0))
	s.host.SetDatavi(ref, []int32{7, 8, 9}, 1)

	s.within(func(tok *gate.Token) {
		s.Equal([]int32{1, 7, 8}, o.Get(tok))

		// readable by this plugin through an ordinary lookup too
		d, err := s.reg.FindDataRef(tok, "demo/owned/name")
		s.Require().NoError(err)
		v, err := d.GetString(tok)
		s.NoError(err)
		s.Equal("ok", v)
	})
}

func (s *RegistryTestSuite) TestPublishExistingName() {
	s.host.Define(simhost.DataRefSpec{Name: "sim/test/x", Types: host.TypeFloat})
	s.within(func(tok *gate.Token) {
		_, err := Publish(s.reg, tok, "sim/test/x", true, float32(1))
		s.ErrorIs(err, ErrExists)
		_, err = Publish(s.reg, tok, "bad//name", true, 1.0)
		s.ErrorIs(err, ErrInvalidName)
	})
	s.Equal(0, s.reg.Len())
}

func (s *RegistryTestSuite) TestReleaseUnpublishes() {
	s.within(func(tok *gate.Token) {
		o, err := Publish(s.reg, tok, "demo/owned/tmp", false, 1.0)
		s.Require().NoError(err)
		s.NotZero(s.host.FindDataRef("demo/owned/tmp"))
		o.Release(tok)
		s.Zero(s.host.FindDataRef("demo/owned/tmp"))

		v := catch(func() { o.Get(tok) })
		s.NotNil(v)
	})
}
