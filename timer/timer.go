// Package timer implements election.TimerPort with the standard
// library's time.AfterFunc, as a token-addressable, cancellable
// scheduler that can hold several independent timeouts armed at once.
package timer

import (
	"sync"
	"time"

	"github.com/quorumforge/elections/election"
	"go.uber.org/atomic"
)

// WallClock schedules callbacks with time.AfterFunc. It is safe for
// concurrent use: Schedule/Cancel may be called from any goroutine,
// though the coordinator itself only ever calls them from its own
// dispatch loop.
type WallClock struct {
	nextToken atomic.Uint64

	mu      sync.Mutex
	timers  map[election.Token]*time.Timer
}

func New() *WallClock {
	return &WallClock{timers: map[election.Token]*time.Timer{}}
}

func (w *WallClock) Schedule(delay time.Duration, deliver func()) election.Token {
	token := election.Token(w.nextToken.Inc())
	t := time.AfterFunc(delay, func() {
		w.mu.Lock()
		delete(w.timers, token)
		w.mu.Unlock()
		deliver()
	})
	w.mu.Lock()
	w.timers[token] = t
	w.mu.Unlock()
	return token
}

func (w *WallClock) Cancel(token election.Token) {
	w.mu.Lock()
	t, ok := w.timers[token]
	delete(w.timers, token)
	w.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// SystemClock implements election.Clock over the OS clock.
type SystemClock struct{}

func (SystemClock) UTCNow() time.Time   { return time.Now().UTC() }
func (SystemClock) LocalNow() time.Time { return time.Now() }
