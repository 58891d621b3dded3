//go:build rp2040

package main

import (
	"errors"
	"machine"
	"stopwatch/core"

	"tinygo.org/x/drivers/mcp23017"
)

// Expander wiring: decoder A-D on GPA0-GPA3, digit enables on GPB0-GPB5
const (
	expanderDecoderMask = 0x000F
	expanderEnableShift = 8
	expanderMask        = expanderDecoderMask | core.EnableMask<<expanderEnableShift
)

// ExpanderDisplayBus drives the decoder and enables through an MCP23017.
// Both ports are written in one I2C transaction, so the decoder value and
// the lit digit change together.
type ExpanderDisplayBus struct {
	dev       *mcp23017.Device
	activeLow bool
}

// NewExpanderDisplayBus configures I2C bus (0 or 1) and the expander at addr
func NewExpanderDisplayBus(bus uint8, addr uint8, activeLow bool) (*ExpanderDisplayBus, error) {
	var i2c *machine.I2C
	switch bus {
	case 0:
		i2c = machine.I2C0 // SDA=GP4, SCL=GP5
	case 1:
		i2c = machine.I2C1 // SDA=GP6, SCL=GP7
	default:
		return nil, errors.New("unsupported I2C bus ID")
	}
	if err := i2c.Configure(machine.I2CConfig{Frequency: 400000}); err != nil {
		return nil, err
	}

	dev, err := mcp23017.NewI2C(i2c, addr)
	if err != nil {
		return nil, err
	}
	if err := dev.SetModes([]mcp23017.PinMode{mcp23017.Output}); err != nil {
		return nil, err
	}

	b := &ExpanderDisplayBus{dev: dev, activeLow: activeLow}
	// Blank: no digit lit, decoder 0
	if err := dev.SetPins(b.pins(0, 0), expanderMask); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *ExpanderDisplayBus) pins(enable uint8, bcd uint8) mcp23017.Pins {
	en := uint16(enable & core.EnableMask)
	if b.activeLow {
		en = ^en & core.EnableMask
	}
	return mcp23017.Pins(uint16(bcd&0x0F) | en<<expanderEnableShift)
}

// WriteDigit lights one digit showing bcd
func (b *ExpanderDisplayBus) WriteDigit(enable uint8, bcd uint8) error {
	return b.dev.SetPins(b.pins(enable, bcd), expanderMask)
}
