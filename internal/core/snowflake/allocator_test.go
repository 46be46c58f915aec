package snowflake

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	ms atomic.Int64
}

func newFakeClock(ms int64) *fakeClock {
	c := &fakeClock{}
	c.ms.Store(ms)
	return c
}

func (c *fakeClock) NowMillis() int64 { return c.ms.Load() }

func (c *fakeClock) Set(ms int64) { c.ms.Store(ms) }

func newTestAllocator(t *testing.T, nodeID int, clock Clock) *Allocator {
	t.Helper()
	a, err := New(Config{NodeID: nodeID, Clock: clock})
	require.NoError(t, err)
	return a
}

func TestAllocate_KnownValue(t *testing.T) {
	a := newTestAllocator(t, 1, newFakeClock(1577836801000))

	id, err := a.Allocate()
	require.NoError(t, err)

	assert.Equal(t, ID(262148096), id)
	assert.Equal(t, "262148096", id.String())
	assert.Equal(t, int64(1577836801000), DecodeTimestamp(id))
}

func TestAllocate_SameMillisecond(t *testing.T) {
	a := newTestAllocator(t, 7, newFakeClock(Epoch+5000))

	first, err := a.Allocate()
	require.NoError(t, err)
	second, err := a.Allocate()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, uint16(0), first.Sequence())
	assert.Equal(t, first.Sequence()+1, second.Sequence())
	assert.Equal(t, first.Timestamp(), second.Timestamp())
	assert.Equal(t, uint8(7), second.NodeID())
}

func TestAllocate_IncreasingAcrossMilliseconds(t *testing.T) {
	clock := newFakeClock(Epoch + 10)
	a := newTestAllocator(t, 3, clock)

	var prev ID
	for i := 0; i < 100; i++ {
		// a few IDs per millisecond, then advance
		for j := 0; j < 3; j++ {
			id, err := a.Allocate()
			require.NoError(t, err)
			if i > 0 || j > 0 {
				require.Greater(t, uint64(id), uint64(prev))
			}
			prev = id
		}
		clock.Set(clock.NowMillis() + 1)
	}
}

func TestAllocate_NewMillisecondResetsSequence(t *testing.T) {
	clock := newFakeClock(Epoch + 100)
	a := newTestAllocator(t, 0, clock)

	for i := 0; i < 5; i++ {
		_, err := a.Allocate()
		require.NoError(t, err)
	}
	clock.Set(Epoch + 101)

	id, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint16(0), id.Sequence())
	assert.Equal(t, Epoch+101, id.Timestamp())
}

func TestAllocate_RoundTrip(t *testing.T) {
	a := newTestAllocator(t, 42, SystemClock)

	before := time.Now().UnixMilli()
	id, err := a.Allocate()
	require.NoError(t, err)
	after := time.Now().UnixMilli()

	ts := DecodeTimestamp(id)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
}

func TestAllocate_SequenceExhaustionWaitsForNextMillisecond(t *testing.T) {
	const base = Epoch + 2000
	var reads atomic.Int64
	// The first 4097 reads see the same millisecond; the wait loop's first
	// re-read sees the next one.
	clock := ClockFunc(func() int64 {
		if reads.Add(1) > MaxSequence+2 {
			return base + 1
		}
		return base
	})
	a := newTestAllocator(t, 5, clock)

	seen := make(map[ID]struct{}, MaxSequence+2)
	var last ID
	for i := 0; i <= MaxSequence; i++ {
		id, err := a.Allocate()
		require.NoError(t, err)
		require.Equal(t, uint16(i), id.Sequence())
		require.Equal(t, base, id.Timestamp())
		seen[id] = struct{}{}
		last = id
	}
	assert.Equal(t, uint16(MaxSequence), last.Sequence())

	id, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, base+1, id.Timestamp())
	assert.Equal(t, uint16(0), id.Sequence())
	assert.Greater(t, uint64(id), uint64(last))
	_, dup := seen[id]
	assert.False(t, dup)

	stats := a.Stats()
	assert.Equal(t, uint64(1), stats.Exhausted)
	assert.Equal(t, uint64(MaxSequence+2), stats.Allocated)
	assert.Equal(t, base+1-Epoch, stats.LastTimestamp)
}

func TestAllocate_SequenceExhaustionWithWaitInterval(t *testing.T) {
	clock := newFakeClock(Epoch + 3000)
	a, err := New(Config{NodeID: 1, Clock: clock, WaitInterval: 100 * time.Microsecond})
	require.NoError(t, err)

	for i := 0; i <= MaxSequence; i++ {
		_, err := a.Allocate()
		require.NoError(t, err)
	}

	done := make(chan ID, 1)
	go func() {
		id, err := a.Allocate()
		if err == nil {
			done <- id
		}
		close(done)
	}()

	// let the goroutine reach the wait loop before time moves on
	time.AfterFunc(10*time.Millisecond, func() { clock.Set(Epoch + 3001) })

	select {
	case id, ok := <-done:
		require.True(t, ok, "allocation failed")
		assert.Equal(t, Epoch+3001, id.Timestamp())
		assert.Equal(t, uint16(0), id.Sequence())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for sequence exhaustion handling")
	}
}

func TestAllocate_ClockMovedBackward(t *testing.T) {
	clock := newFakeClock(Epoch + 5000)
	a := newTestAllocator(t, 2, clock)

	first, err := a.Allocate()
	require.NoError(t, err)
	before := a.Stats()

	clock.Set(Epoch + 4999)
	_, err = a.Allocate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClockMovedBackward))
	var clockErr *ClockError
	require.True(t, errors.As(err, &clockErr))
	assert.Equal(t, int64(4999), clockErr.Now)
	assert.Equal(t, int64(5000), clockErr.Last)

	after := a.Stats()
	assert.Equal(t, before.LastTimestamp, after.LastTimestamp)
	assert.Equal(t, before.Allocated, after.Allocated)
	assert.Equal(t, uint64(1), after.ClockBackward)

	// Sequence was not touched: the next ID in the same millisecond is +1.
	clock.Set(Epoch + 5000)
	next, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, first.Sequence()+1, next.Sequence())
}

func TestAllocate_TimestampOutOfRange(t *testing.T) {
	a := newTestAllocator(t, 1, newFakeClock(Epoch-1))

	_, err := a.Allocate()
	assert.ErrorIs(t, err, ErrTimestampOutOfRange)
	assert.Equal(t, noTimestamp, a.Stats().LastTimestamp)

	b := newTestAllocator(t, 1, newFakeClock(Epoch+MaxTimestamp+1))
	_, err = b.Allocate()
	assert.ErrorIs(t, err, ErrTimestampOutOfRange)
}

func TestAllocate_OutOfRangeAfterExhaustionKeepsState(t *testing.T) {
	const last = Epoch + MaxTimestamp
	var reads atomic.Int64
	// The last representable millisecond is used up, then the clock leaves
	// the timestamp field.
	clock := ClockFunc(func() int64 {
		if reads.Add(1) > MaxSequence+2 {
			return last + 1
		}
		return last
	})
	a := newTestAllocator(t, 4, clock)

	for i := 0; i <= MaxSequence; i++ {
		_, err := a.Allocate()
		require.NoError(t, err)
	}

	_, err := a.Allocate()
	require.ErrorIs(t, err, ErrTimestampOutOfRange)

	stats := a.Stats()
	assert.Equal(t, int64(MaxTimestamp), stats.LastTimestamp)
	assert.Equal(t, uint64(MaxSequence+1), stats.Allocated)
	assert.Equal(t, uint64(MaxSequence), a.sequence)
}

func TestAllocate_ConcurrentCallersGetDistinctIDs(t *testing.T) {
	const n = 1000
	a := newTestAllocator(t, 9, SystemClock)

	var wg sync.WaitGroup
	ids := make(chan ID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Allocate()
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ID]struct{}, n)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestNew_NodeIDRange(t *testing.T) {
	for _, node := range []int{-1, MaxNodeID + 1, 1000} {
		_, err := New(Config{NodeID: node})
		assert.ErrorIs(t, err, ErrNodeIDOutOfRange, "node %d", node)
	}

	for _, node := range []int{0, MaxNodeID} {
		a, err := New(DefaultConfig(node))
		require.NoError(t, err)
		assert.Equal(t, node, a.NodeID())
	}
}

func TestNew_DefaultsToSystemClock(t *testing.T) {
	a, err := New(Config{NodeID: 1})
	require.NoError(t, err)
	assert.NotNil(t, a.clock)
	assert.Equal(t, noTimestamp, a.Stats().LastTimestamp)
}

func BenchmarkAllocate(b *testing.B) {
	a, err := New(DefaultConfig(1))
	if err != nil {
		b.Fatal(err)
	}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := a.Allocate(); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
