package core

import (
	"sync/atomic"
	"time"
)

// TimerFreq is the system timer frequency: one tick per microsecond.
const (
	TimerFreq = 1000000
)

// Clock is a source of system time in timer ticks.
// The 32-bit value wraps roughly every 71 minutes; comparisons use timerBefore.
type Clock interface {
	Now() uint32
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerFromDuration converts a duration to timer ticks
func TimerFromDuration(d time.Duration) uint32 {
	return TimerFromUS(uint32(d / time.Microsecond))
}

// timerBefore reports whether a is strictly before b on the wrapping timer.
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ManualClock is a Clock that only moves when told to.
// Used by tests and by hosts that feed time from elsewhere.
type ManualClock struct {
	ticks uint32
}

// Now returns the current tick count
func (c *ManualClock) Now() uint32 {
	return atomic.LoadUint32(&c.ticks)
}

// Set sets the current tick count
func (c *ManualClock) Set(ticks uint32) {
	atomic.StoreUint32(&c.ticks, ticks)
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	atomic.AddUint32(&c.ticks, TimerFromDuration(d))
}
