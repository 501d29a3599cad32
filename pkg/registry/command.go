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

// CommandHandler reacts to the phases of a command. Returning true lets later
// handlers, and the host's default action, see the command too.
type CommandHandler interface {
	HandleCommand(tok *gate.Token, phase host.CommandPhase) bool
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(tok *gate.Token, phase host.CommandPhase) bool

func (f CommandHandlerFunc) HandleCommand(tok *gate.Token, phase host.CommandPhase) bool {
	return f(tok, phase)
}

// Command is a handle to a command known to the host.
type Command struct {
	handle
	ref host.CommandRef
}

// FindCommand looks up a command by its exact name.
func (r *Registry) FindCommand(s gate.Scope, name string) (*Command, error) {
	const op = "find command"
	r.require(s, op)
	if err := ValidateName(name); err != nil {
		return nil, opError(op, name, ErrInvalidName)
	}
	ref := r.host.FindCommand(name)
	if ref == 0 {
		return nil, opError(op, name, ErrNotFound)
	}
	c := &Command{ref: ref}
	c.handle = r.add(KindCommand, name, c, nil)
	return c, nil
}

// Trigger runs the command once: begin immediately followed by end.
func (c *Command) Trigger(s gate.Scope) {
	c.check(s, "command trigger")
	c.reg.host.CommandOnce(c.ref)
}

// Begin starts holding the command down until End.
func (c *Command) Begin(s gate.Scope) {
	c.check(s, "command begin")
	c.reg.host.CommandBegin(c.ref)
}

// End releases a command started with Begin.
func (c *Command) End(s gate.Scope) {
	c.check(s, "command end")
	c.reg.host.CommandEnd(c.ref)
}

// OwnedCommand is a command created by this plugin together with its handler.
// The host has no way to delete commands; releasing only detaches the handler.
type OwnedCommand struct {
	Command
	handler host.HandlerID
}

// CreateCommand creates a new command and attaches h to it. A command that
// already exists yields ErrExists.
func (r *Registry) CreateCommand(s gate.Scope, name, description string, h CommandHandler) (*OwnedCommand, error) {
	const op = "create command"
	r.require(s, op)
	if err := ValidateName(name); err != nil {
		return nil, opError(op, name, ErrInvalidName)
	}
	if !validLabel(description) {
		return nil, opError(op, name, ErrInvalidValue)
	}
	if r.host.FindCommand(name) != 0 {
		return nil, opError(op, name, ErrExists)
	}
	ref := r.host.CreateCommand(name, description)
	if ref == 0 {
		return nil, opError(op, name, ErrExists)
	}
	c := &OwnedCommand{}
	c.ref = ref
	c.handler = r.host.RegisterCommandHandler(ref, true, r.commandCallback(name, h))
	hs := r.host
	c.handle = r.add(KindOwnedCommand, name, c, func() { hs.UnregisterCommandHandler(c.handler) })
	return c, nil
}

// Interception is a handler attached to a command owned by someone else.
type Interception struct {
	handle
	cmd     *Command
	handler host.HandlerID
}

// Intercept attaches h to an existing command. Before selects whether h runs
// ahead of the host's own handling.
func (r *Registry) Intercept(s gate.Scope, cmd *Command, before bool, h CommandHandler) *Interception {
	const op = "intercept command"
	cmd.check(s, op)
	in := &Interception{cmd: cmd}
	in.handler = r.host.RegisterCommandHandler(cmd.ref, before, r.commandCallback(cmd.name, h))
	hs := r.host
	in.handle = r.add(KindCommandHandler, cmd.name, in, func() { hs.UnregisterCommandHandler(in.handler) })
	return in
}

// Command returns the intercepted command.
func (in *Interception) Command() *Command {
	return in.cmd
}

func (r *Registry) commandCallback(name string, h CommandHandler) host.CommandCallback {
	return func(_ host.CommandRef, phase host.CommandPhase) bool {
		pass := true
		r.invoke("command "+name, func(tok *gate.Token) {
			pass = h.HandleCommand(tok, phase)
		})
		return pass
	}
}
