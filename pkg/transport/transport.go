// Package transport delivers inter-plugin messages addressed by signature.
package transport

import (
	"errors"
	"fmt"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/security"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

var (
	// ErrUnknownPeer is returned when no loaded plugin has the signature.
	ErrUnknownPeer = errors.New("transport: unknown peer")
	// ErrReservedMessage is returned for ids in the host's range.
	ErrReservedMessage = errors.New("transport: message id reserved for the host")
)

// Messenger resolves peers through the host and caches their ids for the
// rest of the session.
type Messenger struct {
	peers cmap.ConcurrentMap[string, host.PluginID]
	valid api.SignatureValidator
	log   *logging.Logger
}

var _ api.Messenger = (*Messenger)(nil)

// New returns a Messenger. A nil logger writes to the host log on first use.
func New(log *logging.Logger) *Messenger {
	return &Messenger{
		peers: cmap.New[host.PluginID](),
		valid: security.DefaultValidator(),
		log:   log,
	}
}

// Send delivers msg to the plugin with the given signature.
func (m *Messenger) Send(ctx *xplm.Context, signature string, msg xplm.Message, param uintptr) error {
	if msg.Reserved() {
		return fmt.Errorf("%w: %v", ErrReservedMessage, msg)
	}
	id, err := m.resolve(ctx, signature)
	if err != nil {
		return err
	}
	ctx.SendMessage(id, msg, param)
	return nil
}

// Broadcast delivers msg to every plugin. Reserved ids are dropped.
func (m *Messenger) Broadcast(ctx *xplm.Context, msg xplm.Message, param uintptr) {
	if msg.Reserved() {
		m.logger(ctx).Warnf("not broadcasting %v: %v", msg, ErrReservedMessage)
		return
	}
	ctx.SendMessage(host.NoPlugin, msg, param)
}

func (m *Messenger) resolve(ctx *xplm.Context, signature string) (host.PluginID, error) {
	if id, ok := m.peers.Get(signature); ok {
		return id, nil
	}
	if err := m.valid.ValidateSignature(signature); err != nil {
		return host.NoPlugin, err
	}
	id, ok := ctx.FindPlugin(signature)
	if !ok {
		return host.NoPlugin, fmt.Errorf("%w: %q", ErrUnknownPeer, signature)
	}
	m.peers.Set(signature, id)
	m.logger(ctx).Debugf("peer %q is plugin %d", signature, id)
	return id, nil
}

// Forget drops a cached peer, e.g. after it was reloaded.
func (m *Messenger) Forget(signature string) {
	m.peers.Remove(signature)
}

// Peers lists the cached peers ordered by signature.
func (m *Messenger) Peers() []api.Peer {
	out := make([]api.Peer, 0, m.peers.Count())
	for item := range m.peers.IterBuffered() {
		out = append(out, api.Peer{Signature: item.Key, ID: item.Val})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

func (m *Messenger) logger(ctx *xplm.Context) *logging.Logger {
	if m.log == nil {
		m.log = logging.New("transport", ctx.Registry().Host())
	}
	return m.log
}
