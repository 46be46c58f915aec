package snowflake

import "time"

// Clock supplies the current time in Unix milliseconds.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() int64

// NowMillis implements Clock.
func (f ClockFunc) NowMillis() int64 { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(func() int64 { return time.Now().UnixMilli() })
