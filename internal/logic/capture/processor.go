package capture

import (
	"github.com/gsy/lightstore/internal/debug"
	"github.com/gsy/lightstore/internal/hw/camera"
)

// Processor consumes a captured frame while the orchestrator still owns
// it. Implementations must not retain the frame or its data after
// returning; the buffer goes back to the camera pool as soon as the
// call ends.
type Processor interface {
	Process(f *camera.Frame, deltaGrams float64) error
}

// LogProcessor reports each capture and drops it.
// TODO: hand frames to the recognition pipeline once it exists.
type LogProcessor struct{}

var _ Processor = LogProcessor{}

func (LogProcessor) Process(f *camera.Frame, deltaGrams float64) error {
	debug.Info("Frame ready for recognition: %dx%d, %d bytes (+%.1f g)",
		f.Width, f.Height, f.Size(), deltaGrams)
	return nil
}
