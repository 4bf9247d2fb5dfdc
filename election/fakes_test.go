package election

import (
	"time"

	"github.com/quorumforge/elections/types"
)

// fakeClock is a controllable Clock for deterministic tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(0, 0).UTC()} }

func (c *fakeClock) UTCNow() time.Time   { return c.now }
func (c *fakeClock) LocalNow() time.Time { return c.now }

// fakeTimer never actually fires; tests that need timer callbacks call
// them directly. Schedule/Cancel are recorded for assertions.
type fakeTimer struct {
	scheduled []func()
}

func (t *fakeTimer) Schedule(delay time.Duration, deliver func()) Token {
	t.scheduled = append(t.scheduled, deliver)
	return Token(len(t.scheduled))
}

func (t *fakeTimer) Cancel(token Token) {}

// fakeTransport records every unicast Send so tests can assert on the
// wire without a real network.
type fakeTransport struct {
	sent []sentMessage
}

type sentMessage struct {
	to  types.EndPoint
	msg Message
}

func (tr *fakeTransport) Send(to types.EndPoint, msg Message, deadline time.Time) {
	tr.sent = append(tr.sent, sentMessage{to: to, msg: msg})
}

// fakePublisher records every locally published message.
type fakePublisher struct {
	published []Message
}

func (p *fakePublisher) Publish(msg Message) {
	p.published = append(p.published, msg)
}

func (p *fakePublisher) done() []ElectionsDone {
	var out []ElectionsDone
	for _, m := range p.published {
		if d, ok := m.(ElectionsDone); ok {
			out = append(out, d)
		}
	}
	return out
}

// fakeEpochSource returns a fixed epoch.
type fakeEpochSource struct {
	epoch types.Epoch
	ok    bool
}

func (e fakeEpochSource) GetLastEpoch() (types.Epoch, bool) { return e.epoch, e.ok }

// fakeCheckpointSource returns fixed checkpoint positions.
type fakeCheckpointSource struct {
	writer, chaser, commit int64
}

func (c fakeCheckpointSource) WriterCheckpoint() int64   { return c.writer }
func (c fakeCheckpointSource) ChaserCheckpoint() int64   { return c.chaser }
func (c fakeCheckpointSource) LastCommitPosition() int64 { return c.commit }

func newNode(host string, port int) types.NodeInfo {
	return types.NodeInfo{
		InstanceId:       types.NewNodeId(),
		ExternalEndpoint: types.EndPoint{Host: host, Port: port},
	}
}

func member(n types.NodeInfo, state types.VNodeState) types.MemberInfo {
	return types.MemberInfo{
		InstanceId:       n.InstanceId,
		ExternalEndpoint: n.ExternalEndpoint,
		State:            state,
		IsAlive:          true,
	}
}

func newCoordinator(self types.NodeInfo, clusterSize int) (*Coordinator, *fakePublisher, *fakeTransport, *fakeTimer) {
	pub := &fakePublisher{}
	tr := &fakeTransport{}
	tm := &fakeTimer{}
	cfg := Config{
		Self:        self,
		ClusterSize: clusterSize,
	}
	c, err := New(cfg, Deps{
		Publisher:        pub,
		Timer:            tm,
		Transport:        tr,
		Clock:            newFakeClock(),
		EpochSource:      fakeEpochSource{epoch: types.NoEpoch, ok: false},
		CheckpointSource: fakeCheckpointSource{},
	})
	if err != nil {
		panic(err)
	}
	return c, pub, tr, tm
}
