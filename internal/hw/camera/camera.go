package camera

import (
	"fmt"
	"time"
)

// Frame is one captured image leased from a driver's fixed buffer pool.
// Width and Height are the actual sensor output, Data holds the JPEG
// encoding. Every frame must be handed back with ReleaseFrame exactly
// once; after release the buffer may be overwritten by the next capture.
type Frame struct {
	Width  int
	Height int
	Data   []byte
	Taken  time.Time

	slot int // pool slot owning the backing buffer
}

// Size returns the encoded image size in bytes.
func (f *Frame) Size() int {
	return len(f.Data)
}

// GrabMode controls what happens when a capture is requested while the
// driver already holds buffered frames.
type GrabMode int

const (
	// GrabWhenEmpty hands out the oldest buffered frame first.
	GrabWhenEmpty GrabMode = iota
	// GrabLatest discards buffered frames to hand out the freshest image.
	GrabLatest
)

func (g GrabMode) String() string {
	if g == GrabLatest {
		return "latest"
	}
	return "when_empty"
}

// ParseGrabMode maps the config spelling to a GrabMode. The empty
// string means GrabWhenEmpty.
func ParseGrabMode(s string) (GrabMode, error) {
	switch s {
	case "", "when_empty":
		return GrabWhenEmpty, nil
	case "latest":
		return GrabLatest, nil
	default:
		return GrabWhenEmpty, fmt.Errorf("unknown grab mode: %q", s)
	}
}

// Camera is the high-level interface used by the rest of the
// application. It represents an abstract frame source, regardless of
// how frames are produced (USB capture, mock, etc.).
type Camera interface {
	// AcquireFrame captures one image into a pool buffer and leases
	// it to the caller. Fails when every buffer is already leased.
	AcquireFrame() (*Frame, error)

	// ReleaseFrame returns a leased frame's buffer to the pool.
	// Releasing nil or an already returned frame is a no-op.
	ReleaseFrame(f *Frame)

	// Close releases the underlying device.
	Close() error
}
