package election

import (
	"time"

	"github.com/quorumforge/elections/types"
)

// routedTransport delivers Sends synchronously into the target
// coordinator's Handle, modelling an in-process bus with zero network
// delay. It is intentionally re-entrant: a Send triggered from deep
// inside another Handle call is expected and must not deadlock, since
// the coordinator carries no locks.
type routedTransport struct {
	byEndpoint map[types.EndPoint]*Coordinator
}

func (r *routedTransport) Send(to types.EndPoint, msg Message, deadline time.Time) {
	if c, ok := r.byEndpoint[to]; ok {
		c.Handle(msg)
	}
}

type testNode struct {
	info   types.NodeInfo
	coord  *Coordinator
	pub    *fakePublisher
	timer  *fakeTimer
	member types.MemberInfo
}

// buildCluster wires n coordinators together with a shared routedTransport
// and delivers an identical GossipUpdated snapshot to every one of them,
// so every node's servers list (and therefore its proposer rotation) is
// consistent from the start.
func buildCluster(n int, readOnly ...int) []*testNode {
	roSet := map[int]bool{}
	for _, i := range readOnly {
		roSet[i] = true
	}

	router := &routedTransport{byEndpoint: map[types.EndPoint]*Coordinator{}}
	nodes := make([]*testNode, n)
	members := make([]types.MemberInfo, n)

	for i := 0; i < n; i++ {
		info := newNode("host", 9000+i)
		info.IsReadOnlyReplica = roSet[i]
		members[i] = types.MemberInfo{
			InstanceId:        info.InstanceId,
			ExternalEndpoint:  info.ExternalEndpoint,
			State:             types.VNodeFollower,
			IsAlive:           true,
			IsReadOnlyReplica: info.IsReadOnlyReplica,
		}
		nodes[i] = &testNode{info: info, member: members[i]}
	}

	for i, tn := range nodes {
		pub := &fakePublisher{}
		tm := &fakeTimer{}
		cfg := Config{
			Self:              tn.info,
			ClusterSize:       n,
			IsReadOnlyReplica: tn.info.IsReadOnlyReplica,
		}
		c, err := New(cfg, Deps{
			Publisher:        pub,
			Timer:            tm,
			Transport:        router,
			Clock:            newFakeClock(),
			EpochSource:      fakeEpochSource{epoch: types.NoEpoch, ok: false},
			CheckpointSource: fakeCheckpointSource{},
		})
		if err != nil {
			panic(err)
		}
		router.byEndpoint[tn.info.ExternalEndpoint] = c
		nodes[i].coord = c
		nodes[i].pub = pub
		nodes[i].timer = tm
		_ = i
	}

	for _, tn := range nodes {
		tn.coord.Handle(GossipUpdated{Members: members})
	}
	return nodes
}
