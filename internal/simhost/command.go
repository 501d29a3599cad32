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

type command struct {
	ref         host.CommandRef
	name        string
	description string

	mu       sync.Mutex
	handlers []*cmdHandler
	held     bool
	// fired counts phases that reached the host's own handling.
	fired map[host.CommandPhase]int
}

type cmdHandler struct {
	id     host.HandlerID
	cmd    *command
	before bool
	cb     host.CommandCallback
}

// DefineCommand adds a host command, such as "sim/operation/pause_toggle".
func (h *Host) DefineCommand(name, description string) host.CommandRef {
	if c, ok := h.commands.Get(name); ok {
		return c.ref
	}
	c := &command{
		ref:         host.CommandRef(h.newRef()),
		name:        name,
		description: description,
		fired:       make(map[host.CommandPhase]int),
	}
	h.commands.Set(name, c)
	h.cmdRefs.Set(c.ref, c)
	return c.ref
}

func (h *Host) FindCommand(name string) host.CommandRef {
	if c, ok := h.commands.Get(name); ok {
		return c.ref
	}
	return 0
}

func (h *Host) CreateCommand(name, description string) host.CommandRef {
	return h.DefineCommand(name, description)
}

func (h *Host) CommandOnce(ref host.CommandRef) {
	h.CommandBegin(ref)
	h.CommandEnd(ref)
}

func (h *Host) CommandBegin(ref host.CommandRef) {
	if c, ok := h.cmdRefs.Get(ref); ok {
		c.mu.Lock()
		c.held = true
		c.mu.Unlock()
		h.dispatch(c, host.CommandBegin)
	}
}

func (h *Host) CommandEnd(ref host.CommandRef) {
	if c, ok := h.cmdRefs.Get(ref); ok {
		c.mu.Lock()
		held := c.held
		c.held = false
		c.mu.Unlock()
		if held {
			h.dispatch(c, host.CommandEnd)
		}
	}
}

// dispatch runs before-handlers, the host's own handling, then after-handlers.
// A handler returning false stops the chain.
func (h *Host) dispatch(c *command, phase host.CommandPhase) {
	c.mu.Lock()
	hs := slices.Clone(c.handlers)
	c.mu.Unlock()
	for _, hd := range hs {
		if hd.before && !hd.cb(c.ref, phase) {
			return
		}
	}
	c.mu.Lock()
	c.fired[phase]++
	c.mu.Unlock()
	for _, hd := range hs {
		if !hd.before && !hd.cb(c.ref, phase) {
			return
		}
	}
}

func (h *Host) RegisterCommandHandler(ref host.CommandRef, before bool, cb host.CommandCallback) host.HandlerID {
	c, ok := h.cmdRefs.Get(ref)
	if !ok {
		h.ReportError("RegisterCommandHandler on unknown command")
		return 0
	}
	hd := &cmdHandler{id: host.HandlerID(h.nextHdl.Add(1)), cmd: c, before: before, cb: cb}
	c.mu.Lock()
	c.handlers = append(c.handlers, hd)
	c.mu.Unlock()
	h.handlers.Set(hd.id, hd)
	return hd.id
}

func (h *Host) UnregisterCommandHandler(id host.HandlerID) {
	hd, ok := h.handlers.Pop(id)
	if !ok {
		return
	}
	c := hd.cmd
	c.mu.Lock()
	c.handlers = slices.DeleteFunc(c.handlers, func(x *cmdHandler) bool { return x == hd })
	c.mu.Unlock()
}

// RunCommand triggers a command by name from the host thread, as a key press
// or joystick button would. It reports whether the command exists.
func (h *Host) RunCommand(name string) bool {
	ref := h.FindCommand(name)
	if ref == 0 {
		return false
	}
	h.Do(func() { h.CommandOnce(ref) })
	return true
}

// HoldCommand begins a command, sends frames Continue phases and ends it.
func (h *Host) HoldCommand(name string, frames int) bool {
	c, ok := h.commands.Get(name)
	if !ok {
		return false
	}
	h.Do(func() {
		h.CommandBegin(c.ref)
		for i := 0; i < frames; i++ {
			h.dispatch(c, host.CommandContinue)
		}
		h.CommandEnd(c.ref)
	})
	return true
}

// Fired returns how many times a phase of the command reached the host itself,
// that is, was not consumed by a before-handler.
func (h *Host) Fired(name string, phase host.CommandPhase) int {
	c, ok := h.commands.Get(name)
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired[phase]
}

// Handlers returns the number of handlers attached to a command.
func (h *Host) Handlers(name string) int {
	c, ok := h.commands.Get(name)
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}
