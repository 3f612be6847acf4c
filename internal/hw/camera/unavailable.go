package camera

import "fmt"

// Unavailable is the Camera installed when bring-up fails. Every
// acquisition reports the bring-up failure, so the sampling loop keeps
// running and the logs keep pointing at the root cause.
type Unavailable struct {
	err error
}

var _ Camera = (*Unavailable)(nil)

// NewUnavailable wraps a bring-up failure as a permanently failing
// camera.
func NewUnavailable(err error) *Unavailable {
	return &Unavailable{err: err}
}

func (u *Unavailable) AcquireFrame() (*Frame, error) {
	return nil, fmt.Errorf("camera unavailable: %w", u.err)
}

func (u *Unavailable) ReleaseFrame(f *Frame) {}

func (u *Unavailable) Close() error {
	return nil
}
