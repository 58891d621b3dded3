//go:build !tinygo

package core

import "time"

var bootTime = time.Now()

// SystemClock reads the host monotonic clock (regular Go implementation)
type SystemClock struct{}

// Now returns microseconds since process start
func (SystemClock) Now() uint32 {
	return uint32(time.Since(bootTime) / time.Microsecond)
}
