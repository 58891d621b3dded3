// Package config describes how the stopwatch is wired to the board.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stopwatch/core"
)

// Display bus kinds
const (
	BusGPIO     = "gpio"
	BusMCP23017 = "mcp23017"
)

// MaxTickPeriodMS keeps the tick period well inside the timer's wrap-safe range
const MaxTickPeriodMS = 60000

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// InputConfig describes one control input
type InputConfig struct {
	Pin    uint32 `json:"pin"`
	Edge   string `json:"edge"` // "rising" or "falling"
	PullUp bool   `json:"pull_up"`
}

// DisplayConfig describes the multiplexed display
type DisplayConfig struct {
	Bus          string    `json:"bus"`
	Decoder      [4]uint32 `json:"decoder"` // A (LSB) .. D
	Enable       [6]uint32 `json:"enable"`  // leftmost .. rightmost digit
	EnableActive string    `json:"enable_active"`
	DwellUS      uint32    `json:"dwell_us"`

	// MCP23017 bus only: decoder on GPA0-3, enables on GPB0-5
	I2CBus     uint8 `json:"i2c_bus"`
	I2CAddress uint8 `json:"i2c_address"`
}

// HeartbeatConfig describes the optional per-tick heartbeat output
type HeartbeatConfig struct {
	Enabled bool   `json:"enabled"`
	Pin     uint32 `json:"pin"`
}

// Config is the complete board wiring
type Config struct {
	Display      DisplayConfig   `json:"display"`
	Reset        InputConfig     `json:"reset"`
	Pause        InputConfig     `json:"pause"`
	Resume       InputConfig     `json:"resume"`
	Heartbeat    HeartbeatConfig `json:"heartbeat"`
	TickPeriodMS uint32          `json:"tick_period_ms"`
	StatusLines  bool            `json:"status_lines"`
}

// Default returns the reference board wiring
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Bus:          BusGPIO,
			Decoder:      [4]uint32{0, 1, 2, 3},
			Enable:       [6]uint32{4, 5, 6, 7, 8, 9},
			EnableActive: "low",
			DwellUS:      2000,
			I2CAddress:   0x20,
		},
		Reset:  InputConfig{Pin: 10, Edge: "falling", PullUp: true},
		Pause:  InputConfig{Pin: 11, Edge: "rising"},
		Resume: InputConfig{Pin: 12, Edge: "falling", PullUp: true},
		Heartbeat: HeartbeatConfig{
			Enabled: true,
			Pin:     25,
		},
		TickPeriodMS: 1000,
		StatusLines:  true,
	}
}

// Load parses a JSON document over the defaults and validates the result
func Load(jsonData []byte) (*Config, error) {
	cfg := Default()

	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in values explicitly zeroed in the document
func applyDefaults(cfg *Config) {
	if cfg.Display.Bus == "" {
		cfg.Display.Bus = BusGPIO
	}
	if cfg.Display.EnableActive == "" {
		cfg.Display.EnableActive = "low"
	}
	if cfg.Display.DwellUS == 0 {
		cfg.Display.DwellUS = 2000
	}
	if cfg.TickPeriodMS == 0 {
		cfg.TickPeriodMS = 1000
	}
}

// Validate checks the wiring for conflicts and timing limits
func (c *Config) Validate() error {
	switch c.Display.Bus {
	case BusGPIO, BusMCP23017:
	default:
		return fmt.Errorf("%w: unknown display bus %q", ErrInvalidConfig, c.Display.Bus)
	}

	if c.Display.EnableActive != "low" && c.Display.EnableActive != "high" {
		return fmt.Errorf("%w: enable_active must be \"low\" or \"high\", got %q", ErrInvalidConfig, c.Display.EnableActive)
	}

	if sweep := c.Dwell() * core.NumDigits; sweep >= core.MaxSweep {
		return fmt.Errorf("%w: display sweep %v exceeds %v", ErrInvalidConfig, sweep, core.MaxSweep)
	}

	if c.TickPeriodMS > MaxTickPeriodMS {
		return fmt.Errorf("%w: tick_period_ms %d exceeds %d", ErrInvalidConfig, c.TickPeriodMS, MaxTickPeriodMS)
	}

	for name, in := range map[string]InputConfig{"reset": c.Reset, "pause": c.Pause, "resume": c.Resume} {
		if _, err := parseEdge(in.Edge); err != nil {
			return fmt.Errorf("%w: %s input: %v", ErrInvalidConfig, name, err)
		}
	}

	used := make(map[uint32]string)
	claim := func(pin uint32, name string) error {
		if prev, ok := used[pin]; ok {
			return fmt.Errorf("%w: pin %d used by both %s and %s", ErrInvalidConfig, pin, prev, name)
		}
		used[pin] = name
		return nil
	}

	if c.Display.Bus == BusGPIO {
		for i, pin := range c.Display.Decoder {
			if err := claim(pin, fmt.Sprintf("decoder[%d]", i)); err != nil {
				return err
			}
		}
		for i, pin := range c.Display.Enable {
			if err := claim(pin, fmt.Sprintf("enable[%d]", i)); err != nil {
				return err
			}
		}
	}
	for _, in := range []struct {
		name string
		pin  uint32
	}{{"reset", c.Reset.Pin}, {"pause", c.Pause.Pin}, {"resume", c.Resume.Pin}} {
		if err := claim(in.pin, in.name); err != nil {
			return err
		}
	}
	if c.Heartbeat.Enabled {
		if err := claim(c.Heartbeat.Pin, "heartbeat"); err != nil {
			return err
		}
	}
	return nil
}

// Dwell returns the per-digit display hold time
func (c *Config) Dwell() time.Duration {
	return time.Duration(c.Display.DwellUS) * time.Microsecond
}

// TickPeriod returns the tick period in timer ticks
func (c *Config) TickPeriod() uint32 {
	return core.TimerFromUS(c.TickPeriodMS * 1000)
}

// ActiveLow reports whether digit enables are asserted low
func (c *Config) ActiveLow() bool {
	return c.Display.EnableActive == "low"
}

// DecoderPins returns the decoder pins as GPIO pins
func (c *Config) DecoderPins() [4]core.GPIOPin {
	var pins [4]core.GPIOPin
	for i, p := range c.Display.Decoder {
		pins[i] = core.GPIOPin(p)
	}
	return pins
}

// EnablePins returns the digit-enable pins as GPIO pins
func (c *Config) EnablePins() [core.NumDigits]core.GPIOPin {
	var pins [core.NumDigits]core.GPIOPin
	for i, p := range c.Display.Enable {
		pins[i] = core.GPIOPin(p)
	}
	return pins
}

// ControlPins converts the input section for core.Stopwatch.AttachControls.
// Call Validate first; invalid edges map to zero.
func (c *Config) ControlPins() core.ControlPins {
	conv := func(in InputConfig) core.InputConfig {
		edge, _ := parseEdge(in.Edge)
		return core.InputConfig{Pin: core.GPIOPin(in.Pin), Edge: edge, PullUp: in.PullUp}
	}
	return core.ControlPins{
		Reset:  conv(c.Reset),
		Pause:  conv(c.Pause),
		Resume: conv(c.Resume),
	}
}

func parseEdge(s string) (core.Edge, error) {
	switch s {
	case "rising":
		return core.EdgeRising, nil
	case "falling":
		return core.EdgeFalling, nil
	default:
		return 0, fmt.Errorf("unknown edge %q", s)
	}
}
