package snowflake

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// noTimestamp marks an allocator that has not issued an ID yet.
const noTimestamp int64 = -1

// Generator allocates IDs.
type Generator interface {
	Allocate() (ID, error)
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	NodeID        int
	LastTimestamp int64 // epoch-relative ms, -1 before the first allocation
	Allocated     uint64
	Exhausted     uint64 // times the sequence wrapped and Allocate waited
	ClockBackward uint64
}

// Allocator issues IDs for a single node. It is safe for concurrent use.
type Allocator struct {
	nodeID       int
	clock        Clock
	waitInterval time.Duration

	mu            sync.Mutex
	lastTimestamp int64
	sequence      uint64

	allocated     uint64
	exhausted     uint64
	clockBackward uint64
}

// Ensure compile-time interface compliance.
var _ Generator = (*Allocator)(nil)

// New creates an Allocator.
func New(cfg Config) (*Allocator, error) {
	if cfg.NodeID < 0 || cfg.NodeID > MaxNodeID {
		return nil, fmt.Errorf("node id %d not in [0, %d]: %w", cfg.NodeID, MaxNodeID, ErrNodeIDOutOfRange)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &Allocator{
		nodeID:        cfg.NodeID,
		clock:         clock,
		waitInterval:  cfg.WaitInterval,
		lastTimestamp: noTimestamp,
	}, nil
}

// NodeID returns the configured node identifier.
func (a *Allocator) NodeID() int { return a.nodeID }

// Allocate returns the next ID.
//
// If the clock reads earlier than the previous allocation it fails with
// ErrClockMovedBackward and leaves its state untouched. When all 4096
// sequence values of the current millisecond are used it blocks until the
// clock advances.
func (a *Allocator) Allocate() (ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.elapsed()
	if now < 0 || now > MaxTimestamp {
		return 0, fmt.Errorf("elapsed %dms since epoch: %w", now, ErrTimestampOutOfRange)
	}
	if now < a.lastTimestamp {
		a.clockBackward++
		return 0, &ClockError{Now: now, Last: a.lastTimestamp}
	}

	if now == a.lastTimestamp {
		a.sequence = (a.sequence + 1) & SequenceMask
		if a.sequence == 0 {
			// sequence is already 0 for the next millisecond
			a.exhausted++
			now = a.waitNextMillis()
			if now > MaxTimestamp {
				a.sequence = MaxSequence
				return 0, fmt.Errorf("elapsed %dms since epoch: %w", now, ErrTimestampOutOfRange)
			}
		}
	} else {
		a.sequence = 0
	}

	a.lastTimestamp = now
	a.allocated++

	return Compose(now, a.nodeID, a.sequence), nil
}

// Stats returns a snapshot of the allocator state and counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		NodeID:        a.nodeID,
		LastTimestamp: a.lastTimestamp,
		Allocated:     a.allocated,
		Exhausted:     a.exhausted,
		ClockBackward: a.clockBackward,
	}
}

func (a *Allocator) elapsed() int64 {
	return a.clock.NowMillis() - Epoch
}

// waitNextMillis blocks until the clock passes lastTimestamp. Called with mu held.
func (a *Allocator) waitNextMillis() int64 {
	now := a.elapsed()
	for now <= a.lastTimestamp {
		if a.waitInterval > 0 {
			time.Sleep(a.waitInterval)
		} else {
			runtime.Gosched()
		}
		now = a.elapsed()
	}
	return now
}
