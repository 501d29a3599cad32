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
	"slices"
	"sync"

	"github.com/srediag/plugin-xplm/pkg/host"
)

const pluginsMenu host.MenuID = 1

type menu struct {
	name string
	cb   host.MenuCallback

	mu    sync.Mutex
	items []MenuItem
}

// MenuItem is a snapshot of one row of a simulated menu.
type MenuItem struct {
	Name      string
	Ref       uintptr
	Check     host.MenuCheck
	Enabled   bool
	Separator bool
}

func (h *Host) PluginsMenu() host.MenuID {
	return pluginsMenu
}

func (h *Host) CreateMenu(name string, parent host.MenuID, parentItem int, cb host.MenuCallback) host.MenuID {
	p, ok := h.menus.Get(parent)
	if !ok {
		return 0
	}
	p.mu.Lock()
	valid := parentItem >= 0 && parentItem < len(p.items)
	p.mu.Unlock()
	if !valid {
		return 0
	}
	id := host.MenuID(h.newRef())
	h.menus.Set(id, &menu{name: name, cb: cb})
	return id
}

func (h *Host) DestroyMenu(id host.MenuID) {
	if id == pluginsMenu {
		return
	}
	h.menus.Remove(id)
}

func (h *Host) AppendMenuItem(id host.MenuID, name string, itemRef uintptr) int {
	m, ok := h.menus.Get(id)
	if !ok {
		return -1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, MenuItem{Name: name, Ref: itemRef, Enabled: true})
	return len(m.items) - 1
}

func (h *Host) AppendMenuSeparator(id host.MenuID) {
	if m, ok := h.menus.Get(id); ok {
		m.mu.Lock()
		m.items = append(m.items, MenuItem{Separator: true, Enabled: true})
		m.mu.Unlock()
	}
}

func (h *Host) withItem(id host.MenuID, index int, fn func(it *MenuItem)) {
	m, ok := h.menus.Get(id)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.items) {
		return
	}
	fn(&m.items[index])
}

func (h *Host) SetMenuItemName(id host.MenuID, index int, name string) {
	h.withItem(id, index, func(it *MenuItem) { it.Name = name })
}

func (h *Host) CheckMenuItem(id host.MenuID, index int, check host.MenuCheck) {
	h.withItem(id, index, func(it *MenuItem) { it.Check = check })
}

func (h *Host) CheckMenuItemState(id host.MenuID, index int) host.MenuCheck {
	check := host.MenuNoCheck
	h.withItem(id, index, func(it *MenuItem) { check = it.Check })
	return check
}

func (h *Host) EnableMenuItem(id host.MenuID, index int, enabled bool) {
	h.withItem(id, index, func(it *MenuItem) { it.Enabled = enabled })
}

func (h *Host) RemoveMenuItem(id host.MenuID, index int) {
	m, ok := h.menus.Get(id)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= 0 && index < len(m.items) {
		m.items = slices.Delete(m.items, index, index+1)
	}
}

// MenuByName returns the first menu with the given title, or 0.
func (h *Host) MenuByName(name string) host.MenuID {
	for item := range h.menus.IterBuffered() {
		if item.Val.name == name {
			return item.Key
		}
	}
	return 0
}

// Items returns a snapshot of a menu's rows.
func (h *Host) Items(id host.MenuID) []MenuItem {
	m, ok := h.menus.Get(id)
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// MenuCount returns the number of menus, the plugins menu included.
func (h *Host) MenuCount() int {
	return h.menus.Count()
}

// Click selects a menu row from the host thread. It reports whether the row
// exists and is clickable.
func (h *Host) Click(id host.MenuID, index int) bool {
	m, ok := h.menus.Get(id)
	if !ok || m.cb == nil {
		return false
	}
	m.mu.Lock()
	if index < 0 || index >= len(m.items) {
		m.mu.Unlock()
		return false
	}
	it := m.items[index]
	m.mu.Unlock()
	if it.Separator || !it.Enabled {
		return false
	}
	h.Do(func() { m.cb(id, it.Ref) })
	return true
}
