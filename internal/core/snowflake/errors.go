package snowflake

import (
	"errors"
	"fmt"
)

var (
	// ErrClockMovedBackward is returned by Allocate when the clock reads
	// earlier than the last allocation. It is never retried internally.
	ErrClockMovedBackward = errors.New("clock moved backward")

	// ErrTimestampOutOfRange is returned when the clock reading does not fit
	// the 45-bit timestamp field (before Epoch or too far in the future).
	ErrTimestampOutOfRange = errors.New("timestamp out of range")

	ErrNodeIDOutOfRange = errors.New("node id out of range")
	ErrInvalidID        = errors.New("invalid id")
)

// ClockError carries the readings behind an ErrClockMovedBackward.
// Both values are milliseconds relative to Epoch.
type ClockError struct {
	Now  int64
	Last int64
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("now %d, last %d (%dms behind): %s", e.Now, e.Last, e.Last-e.Now, ErrClockMovedBackward)
}

// Unwrap makes errors.Is(err, ErrClockMovedBackward) hold.
func (e *ClockError) Unwrap() error { return ErrClockMovedBackward }
