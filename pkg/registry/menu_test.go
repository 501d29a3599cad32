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

func (s *RegistryTestSuite) TestMenuItemsAndClicks() {
	var (
		hello, flag *MenuItem
		clicks      int
		toggles     []bool
	)
	s.within(func(tok *gate.Token) {
		m, err := s.reg.NewMenu(tok, "Demo")
		s.Require().NoError(err)
		hello, err = m.AddAction(tok, "Hello", func(tok *gate.Token) {
			if tok.Valid() {
				clicks++
			}
		})
		s.Require().NoError(err)
		m.AddSeparator(tok)
		flag, err = m.AddCheck(tok, "Flag", false, func(_ *gate.Token, checked bool) {
			toggles = append(toggles, checked)
		})
		s.Require().NoError(err)
		s.Equal(3, m.Items(tok))
		s.Equal(2, flag.Index(tok))
	})

	plugins := s.host.Items(s.host.PluginsMenu())
	s.Require().Len(plugins, 1)
	s.Equal("Demo", plugins[0].Name)

	id := s.host.MenuByName("Demo")
	s.Require().NotZero(id)
	items := s.host.Items(id)
	s.Require().Len(items, 3)
	s.Equal("Hello", items[0].Name)
	s.True(items[1].Separator)
	s.Equal(host.MenuUnchecked, items[2].Check)

	s.True(s.host.Click(id, 0))
	s.False(s.host.Click(id, 1))
	s.True(s.host.Click(id, 2))
	s.True(s.host.Click(id, 2))
	s.Equal(1, clicks)
	s.Equal([]bool{true, false}, toggles)

	s.within(func(tok *gate.Token) {
		hello.Release(tok)
		// the check item moved up
		s.Equal(1, flag.Index(tok))
		s.NoError(flag.SetName(tok, "Flag (on)"))
		flag.SetChecked(tok, true)
		s.True(flag.Checked(tok))
	})
	items = s.host.Items(id)
	s.Require().Len(items, 2)
	s.Equal("Flag (on)", items[1].Name)
	s.Equal(host.MenuChecked, items[1].Check)
}

func (s *RegistryTestSuite) TestMenuReleaseRemovesFromHost() {
	var m *Menu
	s.within(func(tok *gate.Token) {
		var err error
		m, err = s.reg.NewMenu(tok, "Demo")
		s.Require().NoError(err)
		sub, err := m.AddSubmenu(tok, "More")
		s.Require().NoError(err)
		_, err = sub.AddAction(tok, "Deep", func(*gate.Token) {})
		s.Require().NoError(err)
	})
	s.Equal(3, s.host.MenuCount())

	s.within(func(tok *gate.Token) {
		m.Release(tok)
		s.Equal(0, s.reg.Len())
	})
	s.Equal(1, s.host.MenuCount())
	s.Empty(s.host.Items(s.host.PluginsMenu()))
}

func (s *RegistryTestSuite) TestMenuItemDisable() {
	var it *MenuItem
	called := false
	s.within(func(tok *gate.Token) {
		m, err := s.reg.NewMenu(tok, "Demo")
		s.Require().NoError(err)
		it, err = m.AddAction(tok, "Go", func(*gate.Token) { called = true })
		s.Require().NoError(err)
		it.SetEnabled(tok, false)
		_, err = s.reg.NewMenu(tok, "")
		s.ErrorIs(err, ErrInvalidName)
	})
	id := s.host.MenuByName("Demo")
	s.False(s.host.Click(id, 0))
	s.False(called)
}
