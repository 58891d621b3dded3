package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// Edge selects which transition of an input triggers its handler
type Edge uint8

const (
	EdgeRising  Edge = 1 // low to high
	EdgeFalling Edge = 2 // high to low
)

// String returns the edge name used in configs and debug output
func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return "unknown"
	}
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin reads the current pin state (alias for GetPin for convenience)
	ReadPin(pin GPIOPin) bool

	// SetEdgeHandler registers fn to run when the input sees edge.
	// fn may run in interrupt context and must not block.
	SetEdgeHandler(pin GPIOPin, edge Edge, fn func()) error
}
