package camera

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/gsy/lightstore/internal/debug"
)

// USBConfig holds the capture configuration for a V4L2 camera.
type USBConfig struct {
	Device      int // V4L2 device index (/dev/videoN)
	Width       int
	Height      int
	JPEGQuality int // 1-100
	BufferCount int // pool size, also requested as driver queue depth
	GrabMode    GrabMode
}

// USB is a Camera implementation reading a V4L2 device through gocv
// and encoding each capture to JPEG. One Mat is reused for every
// capture; the encoded bytes live in the pool buffers.
type USB struct {
	mu     sync.Mutex
	cfg    USBConfig
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	pool   *pool
	frames []*Frame
	closed bool
}

var _ Camera = (*USB)(nil)

// NewUSB opens the V4L2 device and applies the capture configuration.
// The device is free to deliver a different resolution than requested;
// the actual values are logged here and reported per frame.
func NewUSB(cfg USBConfig) (*USB, error) {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open video device %d: %w", cfg.Device, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferCount))

	gotW := int(vc.Get(gocv.VideoCaptureFrameWidth))
	gotH := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if gotW != cfg.Width || gotH != cfg.Height {
		debug.Info("Camera delivers %dx%d (requested %dx%d)", gotW, gotH, cfg.Width, cfg.Height)
	}

	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}

	u := &USB{
		cfg:  cfg,
		vc:   vc,
		mat:  gocv.NewMat(),
		pool: newPool(cfg.BufferCount),
	}
	u.frames = make([]*Frame, u.pool.size())
	for i := range u.frames {
		u.frames[i] = &Frame{slot: i}
	}

	debug.Verbose("USB camera %d open: %dx%d, JPEG quality %d, %d buffers, grab %s",
		cfg.Device, gotW, gotH, cfg.JPEGQuality, u.pool.size(), cfg.GrabMode)
	return u, nil
}

// AcquireFrame captures one image, encodes it to JPEG and leases it
// from the pool.
func (u *USB) AcquireFrame() (*Frame, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil, errors.New("camera is closed")
	}
	slot, ok := u.pool.acquire()
	if !ok {
		return nil, fmt.Errorf("no free frame buffer (%d in flight)", u.pool.inFlight())
	}

	if u.cfg.GrabMode == GrabLatest {
		// Drop frames queued by the driver so the capture shows the
		// tray now, not when the queue last drained.
		u.vc.Grab(u.pool.size())
	}

	if ok := u.vc.Read(&u.mat); !ok || u.mat.Empty() {
		u.pool.release(slot)
		return nil, errors.New("camera read failed")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, u.mat,
		[]int{gocv.IMWriteJpegQuality, u.cfg.JPEGQuality})
	if err != nil {
		u.pool.release(slot)
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	defer buf.Close()

	f := u.frames[slot]
	f.Width = u.mat.Cols()
	f.Height = u.mat.Rows()
	f.Taken = time.Now()
	f.Data = append(f.Data[:0], buf.GetBytes()...)
	return f, nil
}

// ReleaseFrame returns a frame's buffer to the pool.
func (u *USB) ReleaseFrame(f *Frame) {
	if f == nil {
		return
	}
	if !u.pool.release(f.slot) {
		debug.Error(fmt.Errorf("camera: released frame was not leased (slot %d)", f.slot))
	}
}

// Close releases the device and the capture buffer.
func (u *USB) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	if err := u.mat.Close(); err != nil {
		debug.Error(fmt.Errorf("close capture buffer: %w", err))
	}
	return u.vc.Close()
}
