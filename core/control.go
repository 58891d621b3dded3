package core

import "fmt"

// InputConfig describes one control input
type InputConfig struct {
	Pin    GPIOPin
	Edge   Edge
	PullUp bool // pull-up when true, pull-down otherwise
}

// ControlPins wires the three control inputs
type ControlPins struct {
	Reset  InputConfig
	Pause  InputConfig
	Resume InputConfig
}

// AttachControls configures the control inputs on gpio and registers the
// stopwatch's signal handlers for their edges.
func (sw *Stopwatch) AttachControls(gpio GPIODriver, pins ControlPins) error {
	inputs := []struct {
		sig Signal
		cfg InputConfig
	}{
		{SignalReset, pins.Reset},
		{SignalPause, pins.Pause},
		{SignalResume, pins.Resume},
	}

	for _, in := range inputs {
		var err error
		if in.cfg.PullUp {
			err = gpio.ConfigureInputPullUp(in.cfg.Pin)
		} else {
			err = gpio.ConfigureInputPullDown(in.cfg.Pin)
		}
		if err != nil {
			return fmt.Errorf("%s input pin %d: %w", in.sig, in.cfg.Pin, err)
		}

		sig := in.sig
		if err := gpio.SetEdgeHandler(in.cfg.Pin, in.cfg.Edge, func() { sw.Handle(sig) }); err != nil {
			return fmt.Errorf("%s input pin %d: %w", in.sig, in.cfg.Pin, err)
		}
	}
	return nil
}

// EdgeDetector turns level samples into edge events
type EdgeDetector struct {
	Edge Edge

	last   bool
	primed bool
}

// Sample feeds the current level and reports whether it completes the
// configured transition. The first sample only primes the detector.
func (d *EdgeDetector) Sample(level bool) bool {
	if !d.primed {
		d.primed = true
		d.last = level
		return false
	}
	prev := d.last
	d.last = level
	switch d.Edge {
	case EdgeRising:
		return !prev && level
	case EdgeFalling:
		return prev && !level
	}
	return false
}

type edgeWatch struct {
	pin      GPIOPin
	detector EdgeDetector
	fn       func()
}

// EdgePoller provides edge handlers for GPIO back ends without pin
// interrupts. Poll must be called often enough to see every press.
type EdgePoller struct {
	read    func(GPIOPin) bool
	watches []*edgeWatch
}

// NewEdgePoller creates a poller sampling pins with read
func NewEdgePoller(read func(GPIOPin) bool) *EdgePoller {
	return &EdgePoller{read: read}
}

// Watch registers fn for edge on pin
func (p *EdgePoller) Watch(pin GPIOPin, edge Edge, fn func()) {
	w := &edgeWatch{pin: pin, fn: fn}
	w.detector.Edge = edge
	w.detector.Sample(p.read(pin))
	p.watches = append(p.watches, w)
}

// Poll samples every watched pin and runs the handlers whose edge occurred
func (p *EdgePoller) Poll() {
	for _, w := range p.watches {
		if w.detector.Sample(p.read(w.pin)) {
			w.fn()
		}
	}
}
