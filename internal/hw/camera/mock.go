package camera

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gsy/lightstore/internal/debug"
)

// JPEG marker bytes framing the synthetic payload, so downstream
// consumers can treat mock frames like real encoder output.
var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0}
	jpegFooter = []byte{0xFF, 0xD9}
)

// Mock is a Camera implementation serving synthetic JPEG frames from a
// fixed buffer pool. Used for development on PC or testing.
type Mock struct {
	mu     sync.Mutex
	width  int
	height int
	pool   *pool
	frames []*Frame
	seq    int
	closed bool
}

var _ Camera = (*Mock)(nil)

// NewMock creates a mock camera producing width x height frames out of
// bufferCount pool slots.
func NewMock(width, height, bufferCount int) *Mock {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}

	m := &Mock{
		width:  width,
		height: height,
		pool:   newPool(bufferCount),
	}
	m.frames = make([]*Frame, m.pool.size())
	for i := range m.frames {
		m.frames[i] = &Frame{slot: i}
	}
	return m
}

// AcquireFrame leases a pool slot and fills it with a synthetic frame.
func (m *Mock) AcquireFrame() (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("mock camera is closed")
	}
	slot, ok := m.pool.acquire()
	if !ok {
		return nil, fmt.Errorf("no free frame buffer (%d in flight)", m.pool.inFlight())
	}

	m.seq++
	f := m.frames[slot]
	f.Width = m.width
	f.Height = m.height
	f.Taken = time.Now()
	f.Data = synthesize(f.Data[:0], m.width, m.height, m.seq)

	debug.Trace("mock camera: frame %d from slot %d", m.seq, slot)
	return f, nil
}

// ReleaseFrame returns a frame's buffer to the pool.
func (m *Mock) ReleaseFrame(f *Frame) {
	if f == nil {
		return
	}
	if !m.pool.release(f.slot) {
		debug.Error(fmt.Errorf("mock camera: released frame was not leased (slot %d)", f.slot))
	}
}

// Close marks the camera closed. Frames already leased stay readable
// until released.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// synthesize builds a JPEG-framed payload sized like a real compressed
// frame, varying with the sequence number so consecutive frames differ.
func synthesize(buf []byte, width, height, seq int) []byte {
	buf = append(buf, jpegHeader...)
	n := width * height / 16
	for i := 0; i < n; i++ {
		buf = append(buf, byte(i*31+seq))
	}
	return append(buf, jpegFooter...)
}
