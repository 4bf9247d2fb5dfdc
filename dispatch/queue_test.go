package dispatch_test

import (
	"sync"
	"testing"
	"time"

	"github.com/quorumforge/elections/dispatch"
	"github.com/quorumforge/elections/election"
	"github.com/quorumforge/elections/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{}

func (fakeClock) UTCNow() time.Time   { return time.Unix(0, 0).UTC() }
func (fakeClock) LocalNow() time.Time { return time.Unix(0, 0) }

type fakeTransport struct{}

func (fakeTransport) Send(types.EndPoint, election.Message, time.Time) {}

type fakeEpochSource struct{}

func (fakeEpochSource) GetLastEpoch() (types.Epoch, bool) { return types.NoEpoch, false }

type fakeCheckpointSource struct{}

func (fakeCheckpointSource) WriterCheckpoint() int64   { return -1 }
func (fakeCheckpointSource) ChaserCheckpoint() int64   { return -1 }
func (fakeCheckpointSource) LastCommitPosition() int64 { return -1 }

// fakePublisher records every message published, guarded by a mutex only
// because the test also inspects it from the goroutine driving the
// assertions; the coordinator itself only ever calls Publish from the
// queue's single dispatch goroutine.
type fakePublisher struct {
	mu        sync.Mutex
	published []election.Message
}

func (p *fakePublisher) Publish(msg election.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// immediateTimer mimics time.AfterFunc's defining characteristic for
// this test: deliver runs on a goroutine of its own, independent of
// whatever goroutine called Schedule.
type immediateTimer struct{}

func (immediateTimer) Schedule(delay time.Duration, deliver func()) election.Token {
	go deliver()
	return 0
}

func (immediateTimer) Cancel(election.Token) {}

func newTestCoordinator(t *testing.T, publisher election.Publisher, serialTimer *dispatch.SerialTimer) *election.Coordinator {
	t.Helper()
	coordinator, err := election.New(election.Config{
		Self:        types.NodeInfo{InstanceId: types.NewNodeId(), ExternalEndpoint: types.EndPoint{Host: "node", Port: 1}},
		ClusterSize: 1,
	}, election.Deps{
		Publisher:        publisher,
		Timer:            serialTimer,
		Transport:        fakeTransport{},
		Clock:            fakeClock{},
		EpochSource:      fakeEpochSource{},
		CheckpointSource: fakeCheckpointSource{},
	})
	require.NoError(t, err)
	return coordinator
}

func TestQueueSerializesConcurrentEnqueues(t *testing.T) {
	publisher := &fakePublisher{}
	serialTimer := dispatch.NewSerialTimer(immediateTimer{})
	coordinator := newTestCoordinator(t, publisher, serialTimer)
	queue := dispatch.New(coordinator, 64)
	serialTimer.Bind(queue)
	defer queue.Close()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(value int32) {
			defer wg.Done()
			queue.Enqueue(election.SetNodePriority{Value: value})
		}(int32(i))
	}
	wg.Wait()

	require.Eventually(t, func() bool { return publisher.count() >= n }, time.Second, time.Millisecond,
		"every concurrently enqueued SetNodePriority must still be handled exactly once")
	assert.Equal(t, n, publisher.count(), "the dispatch loop must serialize concurrent Enqueue calls, never lose or duplicate one")
}

func TestRunInterleavesWithMessagesInSendOrder(t *testing.T) {
	publisher := &fakePublisher{}
	serialTimer := dispatch.NewSerialTimer(immediateTimer{})
	coordinator := newTestCoordinator(t, publisher, serialTimer)
	queue := dispatch.New(coordinator, 8)
	serialTimer.Bind(queue)
	defer queue.Close()

	var mu sync.Mutex
	var order []string

	queue.Run(func() {
		mu.Lock()
		order = append(order, "thunk-1")
		mu.Unlock()
	})
	queue.Enqueue(election.SetNodePriority{Value: 1})
	queue.Run(func() {
		mu.Lock()
		order = append(order, "thunk-2")
		mu.Unlock()
	})
	queue.Enqueue(election.SetNodePriority{Value: 2})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"thunk-1", "thunk-2"}, order, "a single producer's Run/Enqueue calls must execute in send order")
	assert.Equal(t, 2, publisher.count(), "both SetNodePriority messages sent around the thunks must still be handled")
}

func TestCloseDoesNotPanicAgainstConcurrentTimerFires(t *testing.T) {
	publisher := &fakePublisher{}
	serialTimer := dispatch.NewSerialTimer(immediateTimer{})
	coordinator := newTestCoordinator(t, publisher, serialTimer)
	queue := dispatch.New(coordinator, 8)
	serialTimer.Bind(queue)

	// StartElections arms the progress timer and the proof ticker, both
	// of which reschedule themselves forever via immediateTimer's
	// detached goroutine, exactly the pattern that raced Queue.Close
	// before it stopped closing the send channel.
	queue.Enqueue(election.StartElections{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			queue.Enqueue(election.SetNodePriority{Value: int32(i)})
		}
	}()

	assert.NotPanics(t, func() {
		queue.Close()
	})
	wg.Wait()
}
