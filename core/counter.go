package core

import (
	"errors"
	"sync/atomic"
)

// Digit positions, lowest rank first
const (
	SecondsOnes = iota
	SecondsTens
	MinutesOnes
	MinutesTens
	HoursOnes
	HoursTens

	NumDigits
)

// digitLimits holds the largest value each position may hold.
// Exceeding it resets the position to 0 and carries into the next one;
// the last position wraps without carrying.
var digitLimits = [NumDigits]uint32{9, 5, 9, 5, 9, 5}

// ErrDigitRange is returned by Preset for a digit outside its range
var ErrDigitRange = errors.New("digit out of range")

// Digits is a snapshot of the six counter positions, indexed by SecondsOnes..HoursTens.
type Digits [NumDigits]uint8

// String formats the digits as HH:MM:SS
func (d Digits) String() string {
	return string([]byte{
		'0' + d[HoursTens], '0' + d[HoursOnes], ':',
		'0' + d[MinutesTens], '0' + d[MinutesOnes], ':',
		'0' + d[SecondsTens], '0' + d[SecondsOnes],
	})
}

// Seconds returns the total number of seconds the digits represent
func (d Digits) Seconds() uint32 {
	hours := uint32(d[HoursTens])*10 + uint32(d[HoursOnes])
	minutes := uint32(d[MinutesTens])*10 + uint32(d[MinutesOnes])
	seconds := uint32(d[SecondsTens])*10 + uint32(d[SecondsOnes])
	return hours*3600 + minutes*60 + seconds
}

// Valid reports whether every position is within its range
func (d Digits) Valid() bool {
	for i, v := range d {
		if uint32(v) > digitLimits[i] {
			return false
		}
	}
	return true
}

// TimeCounter is the six-digit stopwatch state.
//
// Writers (Tick, Reset, Preset) must hold the critical section. Readers may
// read without it: each position is loaded atomically, so a concurrent read
// sees at most one position mid-carry, never an out-of-range digit.
type TimeCounter struct {
	digits [NumDigits]uint32
}

// Tick advances the counter by one second, rippling carries low to high
func (c *TimeCounter) Tick() {
	for i := 0; i < NumDigits; i++ {
		v := atomic.LoadUint32(&c.digits[i]) + 1
		if v <= digitLimits[i] {
			atomic.StoreUint32(&c.digits[i], v)
			return
		}
		atomic.StoreUint32(&c.digits[i], 0)
	}
}

// Reset zeroes all six positions
func (c *TimeCounter) Reset() {
	for i := range c.digits {
		atomic.StoreUint32(&c.digits[i], 0)
	}
}

// Preset loads an explicit value, rejecting out-of-range digits
func (c *TimeCounter) Preset(d Digits) error {
	if !d.Valid() {
		return ErrDigitRange
	}
	for i, v := range d {
		atomic.StoreUint32(&c.digits[i], uint32(v))
	}
	return nil
}

// Digit returns the value at one position
func (c *TimeCounter) Digit(pos int) uint8 {
	return uint8(atomic.LoadUint32(&c.digits[pos]))
}

// Snapshot returns all six positions
func (c *TimeCounter) Snapshot() Digits {
	var d Digits
	for i := range c.digits {
		d[i] = uint8(atomic.LoadUint32(&c.digits[i]))
	}
	return d
}
