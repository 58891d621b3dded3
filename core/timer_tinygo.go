//go:build tinygo

package core

import "sync/atomic"

var (
	systemTicksValue uint32
	hardwareTime     func() uint32
)

// SetHardwareTimer registers the target's free-running microsecond counter.
func SetHardwareTimer(read func() uint32) {
	hardwareTime = read
}

// SetTime sets the system time when no hardware timer is registered
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}

// SystemClock reads the target hardware timer
type SystemClock struct{}

// Now returns the current system ticks
func (SystemClock) Now() uint32 {
	if hardwareTime != nil {
		return hardwareTime()
	}
	return atomic.LoadUint32(&systemTicksValue)
}
