// Package api defines the contracts between plugin code, the lifecycle shim
// and the integrations around it.
package api

import "github.com/srediag/plugin-xplm/pkg/host"

// State is a plugin lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateStarted
	StateEnabled
	StateDisabled
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarted:
		return "started"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Lifecycle is the plugin's entry-point surface as the host calls it. The
// boolean results are what the C entry points return.
type Lifecycle interface {
	State() State
	Start(desc *host.Descriptor) bool
	Enable() bool
	Disable()
	Stop()
	ReceiveMessage(from host.PluginID, msg host.MessageID, param uintptr)
}
