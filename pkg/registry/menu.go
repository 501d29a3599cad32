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
	"slices"

	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// Menu is a menu created by this plugin, either directly under the host's
// plugins menu or as a submenu of another Menu.
type Menu struct {
	handle
	id     host.MenuID
	parent host.MenuID
	// slot is the item in the parent menu that opens this one.
	slot      *MenuItem
	slotIndex int
	items     []*MenuItem
	destroyed bool
}

type itemKind int

const (
	itemAction itemKind = iota
	itemCheck
	itemSeparator
	itemSubmenu
)

// MenuItem is one row of a Menu. Its host index is its position in the menu
// and shifts when earlier items are removed.
type MenuItem struct {
	handle
	menu    *Menu
	kind    itemKind
	label   string
	checked bool
	sub     *Menu
	onClick func(tok *gate.Token)
	onCheck func(tok *gate.Token, checked bool)
}

// NewMenu adds a menu named name to the host's plugins menu.
func (r *Registry) NewMenu(s gate.Scope, name string) (*Menu, error) {
	const op = "new menu"
	r.require(s, op)
	if name == "" || !validLabel(name) {
		return nil, opError(op, name, ErrInvalidName)
	}
	plugins := r.host.PluginsMenu()
	idx := r.host.AppendMenuItem(plugins, name, 0)
	m := &Menu{parent: plugins, slotIndex: idx}
	m.id = r.host.CreateMenu(name, plugins, idx, r.menuCallback)
	if m.id == 0 {
		r.host.RemoveMenuItem(plugins, idx)
		return nil, opError(op, name, ErrNotFound)
	}
	m.handle = r.add(KindMenu, name, m, func() { r.destroyMenu(m) })
	return m, nil
}

// AddSubmenu appends an item opening a new child menu.
func (m *Menu) AddSubmenu(s gate.Scope, name string) (*Menu, error) {
	const op = "add submenu"
	m.check(s, op)
	if name == "" || !validLabel(name) {
		return nil, opError(op, name, ErrInvalidName)
	}
	r := m.reg
	slot := m.appendItem(itemSubmenu, name)
	sub := &Menu{parent: m.id, slot: slot}
	sub.id = r.host.CreateMenu(name, m.id, m.indexOf(slot), r.menuCallback)
	if sub.id == 0 {
		r.remove(slot.id)
		return nil, opError(op, name, ErrNotFound)
	}
	sub.handle = r.add(KindMenu, name, sub, func() { r.destroyMenu(sub) })
	slot.sub = sub
	return sub, nil
}

// AddAction appends an item that calls fn when clicked.
func (m *Menu) AddAction(s gate.Scope, name string, fn func(tok *gate.Token)) (*MenuItem, error) {
	m.check(s, "add action")
	if !validLabel(name) {
		return nil, opError("add action", name, ErrInvalidValue)
	}
	it := m.appendItem(itemAction, name)
	it.onClick = fn
	return it, nil
}

// AddCheck appends a check item. Clicking toggles the mark and then calls fn
// with the new state.
func (m *Menu) AddCheck(s gate.Scope, name string, checked bool, fn func(tok *gate.Token, checked bool)) (*MenuItem, error) {
	m.check(s, "add check")
	if !validLabel(name) {
		return nil, opError("add check", name, ErrInvalidValue)
	}
	it := m.appendItem(itemCheck, name)
	it.onCheck = fn
	it.checked = checked
	m.reg.host.CheckMenuItem(m.id, m.indexOf(it), checkState(checked))
	return it, nil
}

// AddSeparator appends a separator line.
func (m *Menu) AddSeparator(s gate.Scope) *MenuItem {
	m.check(s, "add separator")
	return m.appendItem(itemSeparator, "")
}

// Items returns the number of rows in the menu.
func (m *Menu) Items(s gate.Scope) int {
	m.check(s, "menu items")
	return len(m.items)
}

func (m *Menu) appendItem(kind itemKind, label string) *MenuItem {
	r := m.reg
	it := &MenuItem{menu: m, kind: kind, label: label}
	it.handle = r.add(KindMenuItem, label, it, func() { r.removeItem(it) })
	if kind == itemSeparator {
		r.host.AppendMenuSeparator(m.id)
	} else {
		r.host.AppendMenuItem(m.id, label, uintptr(it.id))
	}
	m.items = append(m.items, it)
	return it
}

func (m *Menu) indexOf(it *MenuItem) int {
	return slices.Index(m.items, it)
}

func (r *Registry) destroyMenu(m *Menu) {
	for _, it := range slices.Clone(m.items) {
		r.remove(it.id)
	}
	r.host.DestroyMenu(m.id)
	m.destroyed = true
	if m.slot != nil {
		r.remove(m.slot.id)
	} else {
		r.host.RemoveMenuItem(m.parent, m.slotIndex)
	}
}

func (r *Registry) removeItem(it *MenuItem) {
	if it.sub != nil {
		r.remove(it.sub.handle.id)
	}
	m := it.menu
	i := m.indexOf(it)
	if i < 0 {
		return
	}
	if !m.destroyed {
		r.host.RemoveMenuItem(m.id, i)
	}
	m.items = slices.Delete(m.items, i, i+1)
}

func (r *Registry) menuCallback(_ host.MenuID, itemRef uintptr) {
	e, ok := r.lookup(ID(itemRef))
	if !ok {
		return
	}
	it, ok := e.obj.(*MenuItem)
	if !ok {
		return
	}
	r.invoke("menu "+it.label, func(tok *gate.Token) {
		switch it.kind {
		case itemAction:
			if it.onClick != nil {
				it.onClick(tok)
			}
		case itemCheck:
			it.SetChecked(tok, !it.checked)
			if it.onCheck != nil {
				it.onCheck(tok, it.checked)
			}
		}
	})
}

// SetName changes the item's label.
func (it *MenuItem) SetName(s gate.Scope, name string) error {
	it.check(s, "menu item rename")
	if !validLabel(name) {
		return opError("menu item rename", name, ErrInvalidValue)
	}
	it.label = name
	it.name = name
	it.menu.reg.host.SetMenuItemName(it.menu.id, it.menu.indexOf(it), name)
	return nil
}

// SetChecked sets the check mark. It is a no-op on items that are not checks.
func (it *MenuItem) SetChecked(s gate.Scope, checked bool) {
	it.check(s, "menu item check")
	if it.kind != itemCheck {
		return
	}
	it.checked = checked
	it.menu.reg.host.CheckMenuItem(it.menu.id, it.menu.indexOf(it), checkState(checked))
}

// Checked reads the check mark from the host, so changes made there are seen.
func (it *MenuItem) Checked(s gate.Scope) bool {
	it.check(s, "menu item checked")
	if it.kind != itemCheck {
		return false
	}
	it.checked = it.menu.reg.host.CheckMenuItemState(it.menu.id, it.menu.indexOf(it)) == host.MenuChecked
	return it.checked
}

// SetEnabled greys the item out or back in.
func (it *MenuItem) SetEnabled(s gate.Scope, enabled bool) {
	it.check(s, "menu item enable")
	it.menu.reg.host.EnableMenuItem(it.menu.id, it.menu.indexOf(it), enabled)
}

// Index returns the item's current position in its menu.
func (it *MenuItem) Index(s gate.Scope) int {
	it.check(s, "menu item index")
	return it.menu.indexOf(it)
}

func checkState(checked bool) host.MenuCheck {
	if checked {
		return host.MenuChecked
	}
	return host.MenuUnchecked
}
