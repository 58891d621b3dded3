package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

// Open opens device at baud with blocking reads
func Open(device string, baud int) (Port, error) {
	if device == "" {
		return nil, errNoDevice
	}
	if baud <= 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	return port, nil
}
