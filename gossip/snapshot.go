// Package gossip adapts an external membership feed into the
// election.GossipSource port. The snapshot is held in an
// go.uber.org/atomic.Value so the feed's own goroutine can publish
// updates without ever taking a lock the election dispatch loop might
// also want.
package gossip

import (
	"github.com/quorumforge/elections/types"
	"go.uber.org/atomic"
)

// Snapshot is a GossipSource backed by a single atomically-swapped
// slice. Feed calls Update whenever the underlying gossip layer's view
// of the cluster changes; Subscribe's sink is invoked synchronously
// from inside Update, on the feed's own goroutine.
type Snapshot struct {
	current atomic.Value // []types.MemberInfo
	sinks   []func(members []types.MemberInfo)
}

func New() *Snapshot {
	s := &Snapshot{}
	s.current.Store([]types.MemberInfo{})
	return s
}

// Subscribe registers sink to be called on every future Update. It is
// not safe to call Subscribe concurrently with Update; wire all
// subscribers before the feed starts publishing.
func (s *Snapshot) Subscribe(sink func(members []types.MemberInfo)) {
	s.sinks = append(s.sinks, sink)
}

// Update replaces the current snapshot and notifies every subscriber.
func (s *Snapshot) Update(members []types.MemberInfo) {
	snapshot := make([]types.MemberInfo, len(members))
	copy(snapshot, members)
	s.current.Store(snapshot)
	for _, sink := range s.sinks {
		sink(snapshot)
	}
}

// Members returns the most recently published snapshot.
func (s *Snapshot) Members() []types.MemberInfo {
	return s.current.Load().([]types.MemberInfo)
}
