package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// EnableMask covers the six digit-enable lines
const EnableMask = 1<<NumDigits - 1

// MaxSweep bounds a full six-digit sweep for persistence of vision
const MaxSweep = 16 * time.Millisecond

var (
	ErrDwellTooLong = errors.New("dwell time too long for flicker-free display")
	ErrDwellZero    = errors.New("dwell time must be positive")
)

// DisplayBus drives the shared decoder and the digit-enable lines.
// enable is a one-hot mask over EnableMask, bit i lighting physical digit i;
// bcd is the 4-bit decoder input.
type DisplayBus interface {
	WriteDigit(enable uint8, bcd uint8) error
}

// Sleeper holds the current digit for the dwell time
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function such as time.Sleep to Sleeper
type SleeperFunc func(time.Duration)

// Sleep calls f(d)
func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// EnableFor returns the enable mask lighting counter position pos.
// Position 0 (seconds ones) is the rightmost physical digit, enable line 5.
func EnableFor(pos int) uint8 {
	return 1 << (NumDigits - 1 - pos)
}

// Multiplexer sweeps the counter's six positions across the display bus
type Multiplexer struct {
	counter *TimeCounter
	bus     DisplayBus
	dwell   time.Duration
	sleeper Sleeper

	pos         int
	writeErrors uint32
}

// NewMultiplexer creates a multiplexer holding each digit for dwell
func NewMultiplexer(counter *TimeCounter, bus DisplayBus, dwell time.Duration, sleeper Sleeper) (*Multiplexer, error) {
	if dwell <= 0 {
		return nil, ErrDwellZero
	}
	if dwell*NumDigits >= MaxSweep {
		return nil, fmt.Errorf("%w: %v per digit", ErrDwellTooLong, dwell)
	}
	return &Multiplexer{
		counter: counter,
		bus:     bus,
		dwell:   dwell,
		sleeper: sleeper,
	}, nil
}

// Position returns the position the next Step will show
func (m *Multiplexer) Position() int {
	return m.pos
}

// Dwell returns the per-digit hold time
func (m *Multiplexer) Dwell() time.Duration {
	return m.dwell
}

// WriteErrors returns how many bus writes have failed
func (m *Multiplexer) WriteErrors() uint32 {
	return atomic.LoadUint32(&m.writeErrors)
}

// Step shows the current position and advances the cursor, without dwelling.
// The cursor advances even if the write fails.
func (m *Multiplexer) Step() (int, error) {
	pos := m.pos
	m.pos++
	if m.pos == NumDigits {
		m.pos = 0
	}

	if err := m.bus.WriteDigit(EnableFor(pos), m.counter.Digit(pos)&0x0F); err != nil {
		atomic.AddUint32(&m.writeErrors, 1)
		return pos, fmt.Errorf("digit %d: %w", pos, err)
	}
	return pos, nil
}

// Run multiplexes until ctx is cancelled. Write errors are counted and
// reported on the debug channel; they never stop the loop.
func (m *Multiplexer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := m.Step(); err != nil {
			DebugAsync("[DISPLAY] " + err.Error())
		}
		m.sleeper.Sleep(m.dwell)
	}
}

// GPIODisplayBus drives a BCD decoder and the enable lines from GPIO pins
type GPIODisplayBus struct {
	gpio      GPIODriver
	decoder   [4]GPIOPin // A (LSB) to D
	enable    [NumDigits]GPIOPin
	activeLow bool
	current   uint8
}

// NewGPIODisplayBus configures the decoder and enable pins as outputs and
// blanks the display.
func NewGPIODisplayBus(gpio GPIODriver, decoder [4]GPIOPin, enable [NumDigits]GPIOPin, activeLow bool) (*GPIODisplayBus, error) {
	b := &GPIODisplayBus{
		gpio:      gpio,
		decoder:   decoder,
		enable:    enable,
		activeLow: activeLow,
	}

	for _, pin := range decoder {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, fmt.Errorf("decoder pin %d: %w", pin, err)
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return nil, fmt.Errorf("decoder pin %d: %w", pin, err)
		}
	}
	for _, pin := range enable {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, fmt.Errorf("enable pin %d: %w", pin, err)
		}
		if err := gpio.SetPin(pin, activeLow); err != nil {
			return nil, fmt.Errorf("enable pin %d: %w", pin, err)
		}
	}
	return b, nil
}

// WriteDigit switches off the previous digit, sets the decoder, then lights
// the new digit, so the new digit never shows the old value. current only
// tracks enable lines whose write succeeded.
func (b *GPIODisplayBus) WriteDigit(enable uint8, bcd uint8) error {
	enable &= EnableMask

	for i, pin := range b.enable {
		bit := uint8(1) << i
		if b.current&bit != 0 && enable&bit == 0 {
			if err := b.gpio.SetPin(pin, b.activeLow); err != nil {
				return fmt.Errorf("enable pin %d: %w", pin, err)
			}
			b.current &^= bit
		}
	}

	for i, pin := range b.decoder {
		if err := b.gpio.SetPin(pin, bcd&(1<<i) != 0); err != nil {
			return fmt.Errorf("decoder pin %d: %w", pin, err)
		}
	}

	for i, pin := range b.enable {
		bit := uint8(1) << i
		if enable&bit != 0 && b.current&bit == 0 {
			if err := b.gpio.SetPin(pin, !b.activeLow); err != nil {
				return fmt.Errorf("enable pin %d: %w", pin, err)
			}
			b.current |= bit
		}
	}
	return nil
}
