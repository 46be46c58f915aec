package snowflake

import "time"

// Config configures an Allocator.
type Config struct {
	// NodeID identifies this allocator in the fleet, 0..MaxNodeID.
	// Uniqueness across nodes is an operational concern.
	NodeID int

	// Clock defaults to SystemClock.
	Clock Clock

	// WaitInterval is the pause between clock re-reads while waiting for the
	// next millisecond after the sequence is exhausted. Zero spins.
	WaitInterval time.Duration
}

// DefaultConfig returns a config for nodeID backed by the system clock.
func DefaultConfig(nodeID int) Config {
	return Config{
		NodeID: nodeID,
		Clock:  SystemClock,
	}
}
