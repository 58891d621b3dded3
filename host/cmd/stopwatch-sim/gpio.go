package main

import (
	"sync"

	"stopwatch/core"
)

type levelChange struct {
	pin   core.GPIOPin
	level bool
}

// SimGPIO is an in-memory GPIO bank. Inputs have no interrupts: edges are
// found by polling from the timer pump, and presses queued from other
// goroutines are applied there one level change at a time.
type SimGPIO struct {
	mu      sync.Mutex
	levels  map[core.GPIOPin]bool
	outputs map[core.GPIOPin]bool
	pullUp  map[core.GPIOPin]bool

	poller  *core.EdgePoller
	pending chan levelChange
}

// NewSimGPIO creates an empty pin bank
func NewSimGPIO() *SimGPIO {
	g := &SimGPIO{
		levels:  make(map[core.GPIOPin]bool),
		outputs: make(map[core.GPIOPin]bool),
		pullUp:  make(map[core.GPIOPin]bool),
		pending: make(chan levelChange, 32),
	}
	g.poller = core.NewEdgePoller(g.ReadPin)
	return g
}

func (g *SimGPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outputs[pin] = true
	return nil
}

func (g *SimGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pullUp[pin] = true
	g.levels[pin] = true
	return nil
}

func (g *SimGPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pullUp[pin] = false
	g.levels[pin] = false
	return nil
}

func (g *SimGPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = value
	return nil
}

func (g *SimGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin], nil
}

func (g *SimGPIO) ReadPin(pin core.GPIOPin) bool {
	v, _ := g.GetPin(pin)
	return v
}

// SetEdgeHandler registers fn with the poller. Call before the pump starts.
func (g *SimGPIO) SetEdgeHandler(pin core.GPIOPin, edge core.Edge, fn func()) error {
	g.poller.Watch(pin, edge, fn)
	return nil
}

// Press queues a button press on an input: away from its pulled level and back
func (g *SimGPIO) Press(pin core.GPIOPin) {
	g.mu.Lock()
	idle := g.pullUp[pin]
	g.mu.Unlock()

	g.pending <- levelChange{pin, !idle}
	g.pending <- levelChange{pin, idle}
}

// Poll applies queued level changes and runs any edge handlers they trigger.
// Only the timer pump calls it.
func (g *SimGPIO) Poll() {
	for {
		select {
		case c := <-g.pending:
			g.mu.Lock()
			g.levels[c.pin] = c.level
			g.mu.Unlock()
			g.poller.Poll()
		default:
			return
		}
	}
}
