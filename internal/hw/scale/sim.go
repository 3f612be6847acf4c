package scale

import (
	"math"
	"time"
)

// SimConfig tunes the simulated tray: a fixed-weight item appears once
// per ItemPeriod, stays for ItemDuration, then is removed, on top of a
// noisy baseline.
type SimConfig struct {
	ItemWeight   float64       // grams added while the simulated item is present
	ItemPeriod   time.Duration // time between item placements
	ItemDuration time.Duration // how long the item stays on the tray
	Noise        float64       // peak-to-peak baseline noise in grams
}

// Sim is a Scale implementation for development without hardware. It
// produces a noisy baseline and periodically places an item so the full
// detection and capture path can be exercised on a PC.
type Sim struct {
	cfg    SimConfig
	start  time.Time
	scale  float64
	offset float64
}

var _ Scale = (*Sim)(nil)

// NewSim creates a simulated scale. Zero config fields get defaults
// roughly matching a canned drink placed every 20 seconds.
func NewSim(cfg SimConfig) *Sim {
	if cfg.ItemWeight == 0 {
		cfg.ItemWeight = 350
	}
	if cfg.ItemPeriod == 0 {
		cfg.ItemPeriod = 20 * time.Second
	}
	if cfg.ItemDuration == 0 {
		cfg.ItemDuration = 8 * time.Second
	}
	if cfg.Noise == 0 {
		cfg.Noise = 0.4
	}
	return &Sim{
		cfg:   cfg,
		start: time.Now(),
		scale: 1,
	}
}

// IsReady always reports true, a simulated conversion is always waiting.
func (s *Sim) IsReady() bool {
	return true
}

// SetScale stores the calibration factor for interface parity. The
// simulation already works in grams.
func (s *Sim) SetScale(factor float64) {
	s.scale = factor
}

// Tare zeroes the simulated reading at the current point in time.
func (s *Sim) Tare() error {
	s.offset = s.grams(time.Since(s.start))
	return nil
}

// ReadAverage averages a burst of simulated readings, spaced a
// millisecond apart, relative to the tare offset.
func (s *Sim) ReadAverage(samples int) (float64, error) {
	if samples < 1 {
		samples = 1
	}
	elapsed := time.Since(s.start)
	var sum float64
	for i := 0; i < samples; i++ {
		sum += s.grams(elapsed + time.Duration(i)*time.Millisecond)
	}
	return sum/float64(samples) - s.offset, nil
}

// grams returns the simulated tray weight at the given elapsed time.
func (s *Sim) grams(elapsed time.Duration) float64 {
	w := s.cfg.Noise / 2 * math.Sin(elapsed.Seconds()*2*math.Pi*1.3)
	if itemPresent(elapsed, s.cfg.ItemPeriod, s.cfg.ItemDuration) {
		w += s.cfg.ItemWeight
	}
	return w
}

// itemPresent reports whether the simulated item is on the tray. The
// item occupies the tail of each period, so a fresh simulation starts
// with a quiet tray and the first placement lands after the tare.
func itemPresent(elapsed, period, duration time.Duration) bool {
	if period <= 0 {
		return false
	}
	if duration >= period {
		return true
	}
	return elapsed%period >= period-duration
}
