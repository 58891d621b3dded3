package core

import (
	"errors"
	"sync"
)

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	mu       sync.Mutex
	pins     map[GPIOPin]bool
	outputs  map[GPIOPin]bool
	pullUps  map[GPIOPin]bool
	handlers map[GPIOPin]mockEdge
	writes   []pinWrite
	failPin  GPIOPin
	failing  bool
}

type mockEdge struct {
	edge Edge
	fn   func()
}

type pinWrite struct {
	pin   GPIOPin
	value bool
}

var errMockPin = errors.New("mock pin failure")

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:     make(map[GPIOPin]bool),
		outputs:  make(map[GPIOPin]bool),
		pullUps:  make(map[GPIOPin]bool),
		handlers: make(map[GPIOPin]mockEdge),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pullUps[pin] = true
	m.pins[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullDown(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pullUps[pin] = false
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing && pin == m.failPin {
		return errMockPin
	}
	m.pins[pin] = value
	m.writes = append(m.writes, pinWrite{pin, value})
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pins[pin], nil
}

func (m *MockGPIODriver) ReadPin(pin GPIOPin) bool {
	v, _ := m.GetPin(pin)
	return v
}

func (m *MockGPIODriver) SetEdgeHandler(pin GPIOPin, edge Edge, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pin] = mockEdge{edge, fn}
	return nil
}

// Drive sets an input level and fires its handler if the edge matches,
// the way a pin interrupt would.
func (m *MockGPIODriver) Drive(pin GPIOPin, level bool) {
	m.mu.Lock()
	prev := m.pins[pin]
	m.pins[pin] = level
	h, ok := m.handlers[pin]
	m.mu.Unlock()

	if !ok {
		return
	}
	if (h.edge == EdgeRising && !prev && level) || (h.edge == EdgeFalling && prev && !level) {
		h.fn()
	}
}

// FailPin makes every SetPin on pin fail until Heal
func (m *MockGPIODriver) FailPin(pin GPIOPin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPin = pin
	m.failing = true
}

func (m *MockGPIODriver) Heal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = false
}
