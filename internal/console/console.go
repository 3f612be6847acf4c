package console

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the bench console settings (8N1).
const DefaultBaudRate = 115200

// Console mirrors diagnostic output onto a serial port, so the node
// can be watched from a laptop on the bench without network access.
type Console struct {
	port io.WriteCloser
	name string
}

// Open opens the named serial port for writing. A baud rate of zero or
// less uses DefaultBaudRate.
func Open(name string, baud int) (*Console, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial console %s: %w", name, err)
	}
	return newConsole(port, name), nil
}

func newConsole(port io.WriteCloser, name string) *Console {
	return &Console{
		port: port,
		name: name,
	}
}

// Name returns the port name the console was opened on.
func (c *Console) Name() string {
	return c.name
}

func (c *Console) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

func (c *Console) Close() error {
	return c.port.Close()
}
