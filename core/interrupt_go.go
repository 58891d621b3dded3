//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// irqLock stands in for the interrupt mask: on regular Go, handlers run on
// goroutines and this lock keeps them from interleaving. Not reentrant.
var irqLock sync.Mutex

// disableInterrupts enters the critical section
func disableInterrupts() State {
	irqLock.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	irqLock.Unlock()
}
