package capture

import (
	"errors"
	"fmt"

	"github.com/gsy/lightstore/internal/debug"
	"github.com/gsy/lightstore/internal/hw/camera"
)

// Orchestrator turns a placement event into one processed camera frame.
// The frame buffer is leased from the camera pool and returned on every
// path, success or failure.
type Orchestrator struct {
	camera camera.Camera
	proc   Processor
}

func NewOrchestrator(cam camera.Camera, proc Processor) *Orchestrator {
	return &Orchestrator{
		camera: cam,
		proc:   proc,
	}
}

// CaptureOnEvent acquires one frame, reports it and runs the processor
// on it. deltaGrams is the weight rise that triggered the capture.
func (o *Orchestrator) CaptureOnEvent(deltaGrams float64) error {
	frame, err := o.camera.AcquireFrame()
	if err != nil {
		return fmt.Errorf("acquire frame: %w", err)
	}
	if frame == nil {
		return errors.New("camera returned no frame")
	}
	defer o.camera.ReleaseFrame(frame)

	debug.Capture(frame.Width, frame.Height, frame.Size())

	if err := o.proc.Process(frame, deltaGrams); err != nil {
		return fmt.Errorf("process frame: %w", err)
	}
	return nil
}
