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
	"sync/atomic"
	"time"

	"github.com/srediag/plugin-xplm/pkg/host"
)

// peer is an entry of the plugin table.
type peer struct {
	info    host.PluginInfo
	enabled atomic.Bool
}

func newPeer(info host.PluginInfo) *peer {
	p := &peer{info: info}
	p.enabled.Store(true)
	return p
}

func shardPlugin(id host.PluginID) uint32 {
	return uint32(id)
}

func (h *Host) addPeer(info host.PluginInfo) host.PluginID {
	id := host.PluginID(h.table.Count())
	h.table.Set(id, newPeer(info))
	if info.Signature != "" {
		h.plugins.Set(info.Signature, id)
	}
	return id
}

func pluginPath(name string) string {
	return "Resources/plugins/" + name + "/64/lin.xpl"
}

// AddPlugin adds an enabled peer plugin, discoverable by signature.
func (h *Host) AddPlugin(signature string) host.PluginID {
	return h.addPeer(host.PluginInfo{
		Name:      signature,
		Path:      pluginPath(signature),
		Signature: signature,
	})
}

// register records what the loaded plugin reported at start under MyID.
func (h *Host) register(l *Loaded) {
	name, sig, desc := l.desc.Strings()
	if old, ok := h.table.Get(h.myID); ok && old.info.Signature != "" {
		h.plugins.Remove(old.info.Signature)
	}
	p := &peer{info: host.PluginInfo{Name: name, Path: pluginPath(name), Signature: sig, Description: desc}}
	h.table.Set(h.myID, p)
	if sig != "" {
		h.plugins.Set(sig, h.myID)
	}
	h.loaded.Store(l)
}

func (h *Host) setEnabled(id host.PluginID, on bool) {
	if p, ok := h.table.Get(id); ok {
		p.enabled.Store(on)
	}
}

func (h *Host) CountPlugins() int {
	return h.table.Count()
}

func (h *Host) NthPlugin(index int) host.PluginID {
	if index < 0 || index >= h.table.Count() {
		return host.NoPlugin
	}
	return host.PluginID(index)
}

func (h *Host) PluginInfo(id host.PluginID) (host.PluginInfo, bool) {
	p, ok := h.table.Get(id)
	if !ok {
		return host.PluginInfo{}, false
	}
	return p.info, true
}

func (h *Host) IsPluginEnabled(id host.PluginID) bool {
	p, ok := h.table.Get(id)
	return ok && p.enabled.Load()
}

// EnablePlugin enables a peer, or calls the loaded plugin's enable entry
// point before returning when id is MyID. The simulator itself cannot be
// toggled.
func (h *Host) EnablePlugin(id host.PluginID) bool {
	if id == host.XPlane {
		return true
	}
	if id == h.myID {
		if l := h.loaded.Load(); l != nil {
			return l.Enable()
		}
		return false
	}
	if !h.table.Has(id) {
		return false
	}
	h.setEnabled(id, true)
	return true
}

// DisablePlugin is the counterpart of EnablePlugin.
func (h *Host) DisablePlugin(id host.PluginID) {
	switch {
	case id == host.XPlane:
	case id == h.myID:
		if l := h.loaded.Load(); l != nil {
			l.Disable()
		}
	default:
		h.setEnabled(id, false)
	}
}

func (h *Host) ElapsedTime() time.Duration {
	return h.Now()
}
