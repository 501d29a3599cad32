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
	"errors"

	"github.com/srediag/plugin-xplm/pkg/host"
)

// ErrStartFailed is returned by Load when the plugin's start entry point
// reports failure. The host never enables such a plugin.
var ErrStartFailed = errors.New("simhost: plugin start failed")

// Entry is a plugin's ABI surface as the host loader sees it.
type Entry interface {
	Start(desc *host.Descriptor) bool
	Enable() bool
	Disable()
	Stop()
	ReceiveMessage(from host.PluginID, msg host.MessageID, param uintptr)
}

// Loaded is a plugin the simulated host has started.
type Loaded struct {
	h       *Host
	entry   Entry
	desc    host.Descriptor
	enabled bool
	stopped bool
}

// Load starts the plugin and, when start succeeds, enables it. Enable failure
// leaves the plugin loaded but disabled. The plugin holds MyID in the plugin
// table, described by what it reported at start.
func (h *Host) Load(e Entry) (*Loaded, error) {
	l := &Loaded{h: h, entry: e}
	var ok bool
	h.Do(func() { ok = e.Start(&l.desc) })
	if !ok {
		return nil, ErrStartFailed
	}
	h.register(l)
	l.Enable()
	return l, nil
}

// Descriptor returns what the plugin reported at start.
func (l *Loaded) Descriptor() host.Descriptor {
	return l.desc
}

// Enabled reports whether the last enable succeeded and no disable followed.
func (l *Loaded) Enabled() bool {
	return l.enabled
}

// Enable enables a disabled plugin.
func (l *Loaded) Enable() bool {
	if l.stopped || l.enabled {
		return l.enabled
	}
	l.h.Do(func() { l.enabled = l.entry.Enable() })
	l.h.setEnabled(l.h.myID, l.enabled)
	return l.enabled
}

// Disable disables an enabled plugin.
func (l *Loaded) Disable() {
	if l.stopped || !l.enabled {
		return
	}
	l.h.Do(l.entry.Disable)
	l.enabled = false
	l.h.setEnabled(l.h.myID, false)
}

// Send delivers a message to the plugin.
func (l *Loaded) Send(from host.PluginID, msg host.MessageID, param uintptr) {
	if l.stopped {
		return
	}
	l.h.Do(func() { l.entry.ReceiveMessage(from, msg, param) })
}

// Unload disables the plugin if needed and stops it.
func (l *Loaded) Unload() {
	if l.stopped {
		return
	}
	l.Disable()
	l.h.Do(l.entry.Stop)
	l.stopped = true
	l.h.loaded.CompareAndSwap(l, nil)
}
