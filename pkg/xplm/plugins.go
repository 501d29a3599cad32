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

package xplm

import "github.com/srediag/plugin-xplm/pkg/host"

// Plugin describes a plugin loaded by the host, this one included.
type Plugin struct {
	ID host.PluginID
	host.PluginInfo
}

// Plugins lists every loaded plugin except the simulator itself.
func (c *Context) Plugins() []Plugin {
	h := c.sdk("plugins")
	n := h.CountPlugins()
	out := make([]Plugin, 0, n)
	for i := 0; i < n; i++ {
		id := h.NthPlugin(i)
		if id == host.XPlane || id == host.NoPlugin {
			continue
		}
		if info, ok := h.PluginInfo(id); ok {
			out = append(out, Plugin{ID: id, PluginInfo: info})
		}
	}
	return out
}

// PluginInfo describes the plugin with the given id.
func (c *Context) PluginInfo(id host.PluginID) (Plugin, bool) {
	info, ok := c.sdk("plugin info").PluginInfo(id)
	if !ok {
		return Plugin{}, false
	}
	return Plugin{ID: id, PluginInfo: info}, true
}

// Self describes this plugin as the host sees it.
func (c *Context) Self() Plugin {
	p, _ := c.PluginInfo(c.MyID())
	return p
}

// PluginEnabled reports whether the host has the plugin enabled.
func (c *Context) PluginEnabled(id host.PluginID) bool {
	return c.sdk("plugin enabled").IsPluginEnabled(id)
}

// SetPluginEnabled asks the host to enable or disable a plugin and reports
// whether it is enabled afterwards. The host calls the plugin's own enable or
// disable entry point before returning; from inside a lifecycle hook of this
// plugin, toggling itself is refused.
func (c *Context) SetPluginEnabled(id host.PluginID, enabled bool) bool {
	h := c.sdk("set plugin enabled")
	if enabled {
		h.EnablePlugin(id)
	} else {
		h.DisablePlugin(id)
	}
	return h.IsPluginEnabled(id)
}
