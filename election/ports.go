package election

import (
	"time"

	"github.com/quorumforge/elections/types"
)

// Publisher is the coordinator's local out-bus. Publish must be
// fire-and-forget: it must never call back into the coordinator on the
// same stack.
type Publisher interface {
	Publish(msg Message)
}

// Token identifies a scheduled timer so it can be cancelled before it
// fires. Its zero value never matches a real scheduled timer.
type Token uint64

// TimerPort schedules a fire-and-forget callback to run after delay.
// Implementations must not invoke deliver synchronously and must not
// invoke it at all once Cancel has been called with its token (modulo
// an unavoidable race with an already-firing timer, which the
// coordinator tolerates by checking view/state relevance in the
// handler).
type TimerPort interface {
	Schedule(delay time.Duration, deliver func()) Token
	Cancel(token Token)
}

// TransportPort unicasts a message to a peer. Sends carry a delivery
// deadline; the transport may drop undelivered messages past it.
type TransportPort interface {
	Send(to types.EndPoint, msg Message, deadline time.Time)
}

// Clock abstracts wall-clock access so tests can control time.
type Clock interface {
	UTCNow() time.Time
	LocalNow() time.Time
}

// EpochSource supplies the last epoch known to the local epoch manager.
type EpochSource interface {
	// GetLastEpoch returns the last epoch and true, or types.NoEpoch
	// and false if no epoch has ever been written.
	GetLastEpoch() (types.Epoch, bool)
}

// CheckpointSource supplies the local writer/chaser checkpoint
// positions and last commit position used to build this node's own
// LeaderCandidate fingerprint.
type CheckpointSource interface {
	WriterCheckpoint() int64
	ChaserCheckpoint() int64
	LastCommitPosition() int64
}

// GossipSource is the external membership feed. Concrete adapters call
// sink whenever the gossip layer's view of the cluster changes; the
// coordinator itself never polls it, it only ever reacts to the
// GossipUpdated message the adapter constructs from the callback.
type GossipSource interface {
	Subscribe(sink func(members []types.MemberInfo))
}
