//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks pin and timer interrupts so a signal handler or
// tick runs to completion, and returns the previous mask
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts unmasks, letting deferred edge interrupts fire
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
