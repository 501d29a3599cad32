package transport

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/registry"
	"github.com/srediag/plugin-xplm/pkg/security"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

const msgPing xplm.Message = 0x01000001

type TransportTestSuite struct {
	suite.Suite
	host *simhost.Host
	gate *gate.Gate
	sess *xplm.Session
	m    *Messenger
}

func (s *TransportTestSuite) SetupTest() {
	s.host = simhost.New(simhost.DefaultOptions())
	s.gate = gate.New(gate.Options{})
	s.sess = &xplm.Session{ID: "test", Registry: registry.New(s.host, s.gate, registry.Options{})}
	s.m = New(nil)
}

func (s *TransportTestSuite) TearDownTest() {
	s.host.Close()
}

func (s *TransportTestSuite) within(fn func(ctx *xplm.Context)) {
	s.gate.Enter("test", func(tok *gate.Token) {
		fn(xplm.NewContext(tok, s.sess))
	})
}

func (s *TransportTestSuite) TestSendResolvesAndCaches() {
	peer := s.host.AddPlugin("com.example.peer")
	s.within(func(ctx *xplm.Context) {
		s.NoError(s.m.Send(ctx, "com.example.peer", msgPing, 7))
		s.NoError(s.m.Send(ctx, "com.example.peer", msgPing, 8))
	})
	s.Equal([]simhost.Message{
		{To: peer, ID: host.MessageID(msgPing), Param: 7},
		{To: peer, ID: host.MessageID(msgPing), Param: 8},
	}, s.host.Sent())
	s.Equal([]api.Peer{{Signature: "com.example.peer", ID: peer}}, s.m.Peers())

	s.m.Forget("com.example.peer")
	s.Empty(s.m.Peers())
}

func (s *TransportTestSuite) TestSendErrors() {
	s.within(func(ctx *xplm.Context) {
		s.ErrorIs(s.m.Send(ctx, "com.example.absent", msgPing, 0), ErrUnknownPeer)
		s.ErrorIs(s.m.Send(ctx, "no dots", msgPing, 0), security.ErrInvalidSignature)
		s.ErrorIs(s.m.Send(ctx, "com.example.absent", xplm.MsgPlaneLoaded, 0), ErrReservedMessage)
	})
	s.Empty(s.host.Sent())
}

func (s *TransportTestSuite) TestBroadcast() {
	s.within(func(ctx *xplm.Context) {
		s.m.Broadcast(ctx, msgPing, 1)
		s.m.Broadcast(ctx, xplm.MsgPlaneCrashed, 1)
	})
	s.Equal([]simhost.Message{{To: host.NoPlugin, ID: host.MessageID(msgPing), Param: 1}}, s.host.Sent())
	s.Contains(s.host.Console(), "not broadcasting")
}

func (s *TransportTestSuite) TestSendOutsideWindowPanics() {
	s.host.AddPlugin("com.example.peer")
	var kept *xplm.Context
	s.within(func(ctx *xplm.Context) { kept = ctx })
	s.Panics(func() { _ = s.m.Send(kept, "com.example.peer", msgPing, 0) })
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(TransportTestSuite))
}
