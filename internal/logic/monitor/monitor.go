package monitor

import (
	"errors"
	"fmt"

	"github.com/gsy/lightstore/internal/hw/scale"
)

// Kind classifies the outcome of one polling cycle.
type Kind int

const (
	// ReadError means no valid weight was obtained this cycle; the
	// baseline is left untouched.
	ReadError Kind = iota
	// NoEvent means a valid reading without a placement.
	NoEvent
	// Placement means the weight rose past the threshold since the
	// previous valid reading.
	Placement
)

func (k Kind) String() string {
	switch k {
	case NoEvent:
		return "no event"
	case Placement:
		return "placement"
	default:
		return "read error"
	}
}

// Result is the outcome of one polling cycle. Weight and Delta are
// valid for NoEvent and Placement; Err is set for ReadError.
type Result struct {
	Kind   Kind
	Weight float64 // averaged reading in grams
	Delta  float64 // change against the previous valid reading
	Err    error
}

// Monitor decides, once per polling cycle, whether a new item has been
// placed on the tray. Each valid averaged reading is compared against
// the previous one; a rise strictly above the threshold is a placement.
// Failed reads never advance the baseline, so a placement that
// straddles a bad cycle is still detected on the next good one.
type Monitor struct {
	scale     scale.Scale
	threshold float64
	samples   int
	baseline  float64
}

// New creates a Monitor polling the given scale. thresholdGrams is the
// minimum rise that counts as a placement; samplesPerRead is how many
// conversions are averaged into one reading.
func New(s scale.Scale, thresholdGrams float64, samplesPerRead int) *Monitor {
	if samplesPerRead < 1 {
		samplesPerRead = 1
	}
	return &Monitor{
		scale:     s,
		threshold: thresholdGrams,
		samples:   samplesPerRead,
	}
}

// Baseline returns the last valid reading in grams. Starts at zero,
// matching a freshly tared scale.
func (m *Monitor) Baseline() float64 {
	return m.baseline
}

// Poll takes one averaged reading and classifies it.
func (m *Monitor) Poll() Result {
	if !m.scale.IsReady() {
		return Result{Kind: ReadError, Err: errors.New("scale not ready")}
	}
	weight, err := m.scale.ReadAverage(m.samples)
	if err != nil {
		return Result{Kind: ReadError, Err: fmt.Errorf("scale read: %w", err)}
	}

	delta := weight - m.baseline
	kind := NoEvent
	if delta > m.threshold {
		kind = Placement
	}
	// The baseline tracks every valid reading, removals and drift
	// included, so the next placement is measured against the current
	// tray contents.
	m.baseline = weight

	return Result{Kind: kind, Weight: weight, Delta: delta}
}
