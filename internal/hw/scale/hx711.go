package scale

import (
	"errors"
	"fmt"
	"time"

	"github.com/gsy/lightstore/internal/debug"
	"github.com/gsy/lightstore/internal/hw/gpio"
)

// Config holds the hardware configuration for an HX711 load cell amplifier.
type Config struct {
	DataPin     int // DOUT (BCM)
	ClockPin    int // PD_SCK (BCM)
	Gain        int // 128 or 64 (channel A), 32 (channel B)
	TareSamples int // conversions averaged into the tare offset. 0 = 10.
}

// HX711 reads a load cell through the HX711 24-bit ADC over two GPIO lines.
// The protocol is bit-banged: each conversion is shifted out MSB first on
// DOUT, one bit per PD_SCK pulse, followed by 1-3 extra pulses selecting
// channel and gain for the next conversion.
type HX711 struct {
	gpio   gpio.Driver
	cfg    Config
	pulses int // total clock pulses per read: 24 bits + gain select
	scale  float64
	offset float64
}

var _ Scale = (*HX711)(nil)

// Extra clock pulses after the 24 data bits select the input channel and
// gain of the next conversion: 1 = channel A gain 128, 2 = channel B gain
// 32, 3 = channel A gain 64.
func pulsesForGain(gain int) int {
	switch gain {
	case 64:
		return 27
	case 32:
		return 26
	default:
		return 25 // channel A, gain 128
	}
}

// NewHX711 creates an HX711 driver on the given data and clock pins.
// The data line gets a pull-up so a disconnected sensor reads as
// not-ready instead of returning garbage.
func NewHX711(g gpio.Driver, cfg Config) *HX711 {
	if cfg.TareSamples <= 0 {
		cfg.TareSamples = 10
	}

	_ = g.SetupPin(cfg.ClockPin, gpio.Output)
	// PD_SCK idles low: holding it high for more than 60us powers the
	// chip down.
	_ = g.WritePin(cfg.ClockPin, gpio.Low)
	_ = g.SetupPin(cfg.DataPin, gpio.Input)
	_ = g.SetPull(cfg.DataPin, gpio.PullUp)

	return &HX711{
		gpio:   g,
		cfg:    cfg,
		pulses: pulsesForGain(cfg.Gain),
		scale:  1,
	}
}

// IsReady reports whether a conversion is waiting. The chip pulls DOUT
// low when data is available.
func (h *HX711) IsReady() bool {
	level, err := h.gpio.ReadPin(h.cfg.DataPin)
	if err != nil {
		return false
	}
	return level == gpio.Low
}

// SetScale sets the calibration factor in raw counts per gram.
func (h *HX711) SetScale(factor float64) {
	debug.Verbose("HX711: calibration factor %.1f counts/g", factor)
	h.scale = factor
}

// Tare averages a burst of raw conversions and stores the result as the
// zero offset. Call with the tray empty.
func (h *HX711) Tare() error {
	avg, err := h.readAverageRaw(h.cfg.TareSamples)
	if err != nil {
		return fmt.Errorf("tare: %w", err)
	}
	h.offset = avg
	debug.Verbose("HX711: tared, offset %.1f counts", avg)
	return nil
}

// ReadAverage reads the given number of conversions and returns their
// average in grams.
func (h *HX711) ReadAverage(samples int) (float64, error) {
	if samples < 1 {
		samples = 1
	}
	avg, err := h.readAverageRaw(samples)
	if err != nil {
		return 0, err
	}
	if h.scale == 0 {
		return 0, errors.New("hx711: calibration factor is zero")
	}
	return (avg - h.offset) / h.scale, nil
}

func (h *HX711) readAverageRaw(samples int) (float64, error) {
	var sum int64
	for i := 0; i < samples; i++ {
		raw, err := h.readRaw()
		if err != nil {
			return 0, err
		}
		sum += int64(raw)
	}
	return float64(sum) / float64(samples), nil
}

// waitReady blocks until DOUT goes low. The chip produces conversions at
// 10 or 80 samples per second, so the wait is bounded in practice; callers
// that cannot afford to block should check IsReady first.
func (h *HX711) waitReady() error {
	for {
		level, err := h.gpio.ReadPin(h.cfg.DataPin)
		if err != nil {
			return err
		}
		if level == gpio.Low {
			return nil
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// readRaw shifts one 24-bit two's complement conversion out of the chip
// and clocks the gain selection for the next one. No sleeps between
// edges: GPIO writes are slow enough, and stretching PD_SCK high beyond
// 60us would power the chip down mid-read.
func (h *HX711) readRaw() (int32, error) {
	if err := h.waitReady(); err != nil {
		return 0, fmt.Errorf("hx711 read: %w", err)
	}

	var raw int32
	for i := 0; i < 24; i++ {
		if err := h.gpio.WritePin(h.cfg.ClockPin, gpio.High); err != nil {
			return 0, fmt.Errorf("hx711 read: %w", err)
		}
		level, err := h.gpio.ReadPin(h.cfg.DataPin)
		if err != nil {
			return 0, fmt.Errorf("hx711 read: %w", err)
		}
		if err := h.gpio.WritePin(h.cfg.ClockPin, gpio.Low); err != nil {
			return 0, fmt.Errorf("hx711 read: %w", err)
		}
		raw <<= 1
		if level == gpio.High {
			raw |= 1
		}
	}

	for i := 24; i < h.pulses; i++ {
		if err := h.gpio.WritePin(h.cfg.ClockPin, gpio.High); err != nil {
			return 0, fmt.Errorf("hx711 read: %w", err)
		}
		if err := h.gpio.WritePin(h.cfg.ClockPin, gpio.Low); err != nil {
			return 0, fmt.Errorf("hx711 read: %w", err)
		}
	}

	// Sign-extend the 24-bit two's complement value.
	if raw&0x800000 != 0 {
		raw |= -0x1000000
	}

	debug.Trace("HX711: raw conversion %d", raw)
	return raw, nil
}
