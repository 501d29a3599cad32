// Package api defines the contracts between plugin code, the lifecycle shim
// and the integrations around it.
package api

import (
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

// Messenger sends inter-plugin messages by peer signature.
type Messenger interface {
	Send(ctx *xplm.Context, signature string, msg xplm.Message, param uintptr) error
	Broadcast(ctx *xplm.Context, msg xplm.Message, param uintptr)
}

// Peer is a plugin known to a Messenger.
type Peer struct {
	Signature string
	ID        host.PluginID
}
