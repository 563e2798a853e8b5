package grid

import (
	"sync"
	"time"
)

// DefaultFilterDebounce is the quiet period before a server-side filter
// change is emitted.
const DefaultFilterDebounce = 300 * time.Millisecond

type (
	// Timer is a scheduled callback that can be cancelled.
	Timer interface {
		Stop() bool
	}

	// TimerFunc schedules f after d. It matches time.AfterFunc and is
	// replaceable in tests.
	TimerFunc func(d time.Duration, f func()) Timer
)

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// debouncer collapses repeated triggers per key into one call after a quiet
// period. At most one timer is pending per key.
type debouncer struct {
	delay time.Duration
	after TimerFunc

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingCall
	closed  bool
}

type pendingCall struct {
	timer Timer
	seq   uint64
}

func newDebouncer(delay time.Duration, after TimerFunc) *debouncer {
	if after == nil {
		after = afterFunc
	}
	return &debouncer{
		delay:   delay,
		after:   after,
		pending: make(map[string]pendingCall),
	}
}

// trigger schedules fn under key, cancelling any call already pending for
// that key. It reports whether an earlier call was replaced.
func (d *debouncer) trigger(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	prev, replaced := d.pending[key]
	if replaced {
		prev.timer.Stop()
	}

	d.seq++
	seq := d.seq
	timer := d.after(d.delay, func() {
		if d.claim(key, seq) {
			fn()
		}
	})
	d.pending[key] = pendingCall{timer: timer, seq: seq}
	return replaced
}

// claim removes the pending entry if it still belongs to seq. A timer that
// fired just as it was replaced loses the claim and does nothing.
func (d *debouncer) claim(key string, seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if d.closed || !ok || p.seq != seq {
		return false
	}
	delete(d.pending, key)
	return true
}

// pendingCount reports how many keys have a scheduled call.
func (d *debouncer) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// close cancels every pending call; later triggers are ignored.
func (d *debouncer) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}
