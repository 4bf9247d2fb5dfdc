package transport

import (
	"sync"
	"time"

	"github.com/quorumforge/elections/election"
	"github.com/quorumforge/elections/types"
	"github.com/sirupsen/logrus"
)

// RPCTransport implements election.TransportPort over net/rpc. Sends are
// fire-and-forget: they run on their own goroutine so a slow or dead
// peer can never stall the coordinator's dispatch loop. A send whose
// deadline has already passed is dropped without a log line, and any
// call error is logged and dropped rather than surfaced, matching the
// "unicast, no reply is awaited" behavior required of the port.
type RPCTransport struct {
	logger logrus.FieldLogger

	mu    sync.Mutex
	peers map[types.EndPoint]*peer
}

func NewRPCTransport(logger logrus.FieldLogger) *RPCTransport {
	return &RPCTransport{
		logger: logger,
		peers:  map[types.EndPoint]*peer{},
	}
}

func (t *RPCTransport) peerFor(to types.EndPoint) *peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[to]
	if !ok {
		p = newPeer(to)
		t.peers[to] = p
	}
	return p
}

func (t *RPCTransport) Send(to types.EndPoint, msg election.Message, deadline time.Time) {
	method, ok := methodFor(msg)
	if !ok {
		t.logger.WithField("to", to.String()).Warn("dropping election message of unroutable type")
		return
	}
	go func() {
		if time.Now().After(deadline) {
			return
		}
		p := t.peerFor(to)
		var ack Ack
		if err := p.call(method, msg, &ack); err != nil {
			t.logger.WithFields(logrus.Fields{"to": to.String(), "method": method, "error": err}).Debug("election send failed")
		}
	}()
}

func methodFor(msg election.Message) (string, bool) {
	switch msg.(type) {
	case election.ViewChange:
		return "Service.ViewChange", true
	case election.ViewChangeProof:
		return "Service.ViewChangeProof", true
	case election.Prepare:
		return "Service.Prepare", true
	case election.PrepareOk:
		return "Service.PrepareOk", true
	case election.Proposal:
		return "Service.Proposal", true
	case election.Accept:
		return "Service.Accept", true
	case election.LeaderIsResigning:
		return "Service.LeaderIsResigning", true
	case election.LeaderIsResigningOk:
		return "Service.LeaderIsResigningOk", true
	default:
		return "", false
	}
}
