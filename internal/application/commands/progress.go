package commands

import (
	"sync"
	"sync/atomic"
)

// ProgressSnapshot is a point-in-time view of an update run
type ProgressSnapshot struct {
	Total     int
	Completed int
}

// Fraction returns completed work in [0, 1]
func (s ProgressSnapshot) Fraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Progress tracks completed targets and notifies subscribers. Notifications
// never block; a slow subscriber only sees the latest snapshot.
type Progress struct {
	total     atomic.Int64
	completed atomic.Int64

	mu   sync.Mutex
	subs map[chan ProgressSnapshot]struct{}
}

// NewProgress creates an empty Progress
func NewProgress() *Progress {
	return &Progress{subs: make(map[chan ProgressSnapshot]struct{})}
}

// Start resets counters for a run of total targets
func (p *Progress) Start(total int) {
	p.completed.Store(0)
	p.total.Store(int64(total))
	p.notify()
}

// Increment marks one more target complete
func (p *Progress) Increment() {
	p.completed.Add(1)
	p.notify()
}

// Reset zeroes both counters
func (p *Progress) Reset() {
	p.total.Store(0)
	p.completed.Store(0)
	p.notify()
}

// Snapshot returns the current counters
func (p *Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Total:     int(p.total.Load()),
		Completed: int(p.completed.Load()),
	}
}

// Subscribe returns a channel of snapshots and a function that cancels it
func (p *Progress) Subscribe() (<-chan ProgressSnapshot, func()) {
	ch := make(chan ProgressSnapshot, 1)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (p *Progress) notify() {
	snap := p.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
