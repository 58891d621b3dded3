package main

import (
	"fmt"
	"io"
	"math/bits"
	"sync"

	"stopwatch/core"
)

// TerminalBus is a DisplayBus that latches each digit as the multiplexer
// lights it and prints the whole display when a sweep shows a new value.
type TerminalBus struct {
	mu      sync.Mutex
	out     io.Writer
	latched core.Digits
	shown   string
}

// NewTerminalBus creates a bus printing to out
func NewTerminalBus(out io.Writer) *TerminalBus {
	return &TerminalBus{out: out}
}

// WriteDigit latches bcd at the lit physical digit
func (b *TerminalBus) WriteDigit(enable uint8, bcd uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if enable&^core.EnableMask != 0 || bits.OnesCount8(enable) != 1 {
		return fmt.Errorf("enable mask %06b is not one-hot", enable)
	}
	if bcd > 9 {
		return fmt.Errorf("decoder value %d out of range", bcd)
	}

	// Physical digit i shows counter position 5-i
	physical := bits.TrailingZeros8(enable)
	pos := core.NumDigits - 1 - physical
	b.latched[pos] = bcd

	// Hours tens is the last position of a sweep
	if pos == core.HoursTens {
		if s := b.latched.String(); s != b.shown {
			b.shown = s
			fmt.Fprintf(b.out, "\r%s", s)
		}
	}
	return nil
}

// Shown returns the value printed by the last complete sweep
func (b *TerminalBus) Shown() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown
}
