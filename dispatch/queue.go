// Package dispatch serializes concurrent message sources (the RPC
// service, timers, the gossip feed) onto a single goroutine calling
// election.Coordinator.Handle, since the coordinator itself carries no
// locking and requires single-owner delivery.
package dispatch

import (
	"sync"
	"time"

	"github.com/quorumforge/elections/election"
)

// item is either an election.Message bound for Coordinator.Handle or a
// bare func() hopping some other callback (a fired timer, a gossip
// update) onto the queue's goroutine.
type item interface{}

// Queue is a single-consumer channel wrapping one Coordinator. Enqueue
// and Run are safe to call from any goroutine, including concurrently
// with Close; delivery to Handle, and execution of any Run thunk,
// always happens on Queue's own goroutine, one item at a time. in is
// never closed, since a timer fired independently by time.AfterFunc
// (see SerialTimer) can race an in-flight Close and would otherwise
// send on a closed channel; closed is the shutdown signal instead.
type Queue struct {
	in          chan item
	coordinator *election.Coordinator
	done        chan struct{}
	closed      chan struct{}
	closeOnce   sync.Once
}

func New(coordinator *election.Coordinator, capacity int) *Queue {
	q := &Queue{
		in:          make(chan item, capacity),
		coordinator: coordinator,
		done:        make(chan struct{}),
		closed:      make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case it := <-q.in:
			switch v := it.(type) {
			case election.Message:
				q.coordinator.Handle(v)
			case func():
				v()
			}
		case <-q.closed:
			return
		}
	}
}

// send delivers it unless the queue has already been closed, in which
// case it is dropped. Racing a Close is expected and harmless: a late
// timer fire either lands just before shutdown or is dropped, and any
// message that does land is still subject to Coordinator.Handle's own
// Shutdown guard.
func (q *Queue) send(it item) {
	select {
	case q.in <- it:
	case <-q.closed:
	}
}

// Enqueue hands msg to the coordinator's dispatch loop. It blocks only
// if the queue's buffer is full, which under sustained overload is the
// intended back-pressure signal rather than an unbounded memory grow.
func (q *Queue) Enqueue(msg election.Message) {
	q.send(msg)
}

// Run schedules f to execute on the queue's goroutine, interleaved with
// message delivery. It is how a timer fire or a gossip callback, both
// of which run on their own goroutine, rejoin the coordinator's single
// dispatch stream instead of calling Handle directly.
func (q *Queue) Run(f func()) {
	q.send(f)
}

// Close signals the dispatch loop to stop and waits for it to exit. Safe
// to call more than once, and safe to race with a concurrent Enqueue or
// Run: neither can panic afterward, since in is never closed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
	<-q.done
}

// SerialTimer wraps a TimerPort so every fired callback is re-delivered
// through a Queue instead of running on the timer's own goroutine,
// preserving the coordinator's single-owner invariant. It must be
// constructed before the Coordinator (Deps.Timer needs a TimerPort
// immediately) and Bound to that Coordinator's Queue right after the
// Queue is created and before any message is enqueued.
type SerialTimer struct {
	queue      *Queue
	underlying election.TimerPort
}

func NewSerialTimer(underlying election.TimerPort) *SerialTimer {
	return &SerialTimer{underlying: underlying}
}

// Bind attaches the queue that fired timer callbacks are re-delivered
// through. Call it once, before the coordinator processes its first
// message.
func (t *SerialTimer) Bind(queue *Queue) {
	t.queue = queue
}

func (t *SerialTimer) Schedule(delay time.Duration, deliver func()) election.Token {
	return t.underlying.Schedule(delay, func() {
		t.queue.Run(deliver)
	})
}

func (t *SerialTimer) Cancel(token election.Token) {
	t.underlying.Cancel(token)
}
