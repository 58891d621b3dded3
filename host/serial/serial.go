// Package serial connects to the stopwatch firmware's USB serial console.
package serial

import (
	"context"
	"errors"
	"io"
	"sync"
)

// DefaultBaud is the console rate. USB CDC ignores it, a UART bridge does not.
const DefaultBaud = 115200

// Port is the part of a serial port the console uses
type Port interface {
	io.ReadCloser

	// Flush discards input received before the console attached
	Flush() error
}

// Console reads firmware output from a port until its context ends
type Console struct {
	ctx  context.Context
	port Port

	closeOnce sync.Once
	closeErr  error
	stop      func() bool
}

// Attach flushes stale input from port and arranges for it to be closed
// when ctx ends, which unblocks a pending Read. A flush failure is returned
// alongside a usable console.
func Attach(ctx context.Context, port Port) (*Console, error) {
	c := &Console{ctx: ctx, port: port}
	c.stop = context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := port.Flush(); err != nil {
		return c, err
	}
	return c, nil
}

// Read reads from the port. Once the context has ended it reports io.EOF,
// so a line reader stops cleanly instead of failing on the closed port.
func (c *Console) Read(b []byte) (int, error) {
	n, err := c.port.Read(b)
	if err != nil && c.ctx.Err() != nil {
		return n, io.EOF
	}
	return n, err
}

// Close closes the port. It is safe to call more than once.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		if c.stop != nil {
			c.stop()
		}
		c.closeErr = c.port.Close()
	})
	return c.closeErr
}

var errNoDevice = errors.New("no serial device given")
