// Package api defines the contracts between plugin code, the lifecycle shim
// and the integrations around it.
package api

import (
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

// Info describes a plugin to the host. Signature must be unique across all
// loaded plugins; reverse-DNS style ("com.example.demo") is expected.
type Info struct {
	Name        string `yaml:"name"`
	Signature   string `yaml:"signature"`
	Description string `yaml:"description"`
}

// Plugin is a started plugin instance. Hook errors are logged by the shim;
// the host has no way to act on them.
type Plugin interface {
	Info() Info
	Enable(ctx *xplm.Context) error
	Disable(ctx *xplm.Context) error
	Stop(ctx *xplm.Context) error
}

// Factory is the start hook. It creates the plugin instance, or returns an
// error to make the host abort loading.
type Factory func(ctx *xplm.Context) (Plugin, error)

// MessageReceiver is implemented by plugins that want host or inter-plugin
// messages.
type MessageReceiver interface {
	ReceiveMessage(ctx *xplm.Context, from host.PluginID, msg xplm.Message, param uintptr)
}
