package scale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsy/lightstore/internal/hw/gpio"
)

// scriptDriver feeds scripted levels to reads of the data pin and
// records every write to the clock pin. An exhausted script reads Low,
// which the chip protocol treats as ready with all-zero data bits.
type scriptDriver struct {
	dataPin  int
	clockPin int
	data     []gpio.Level
	clock    []gpio.Level
	readErr  error
	writeErr error
}

func (d *scriptDriver) SetupPin(pin int, mode gpio.PinMode) error { return nil }

func (d *scriptDriver) SetPull(pin int, pull gpio.Pull) error { return nil }

func (d *scriptDriver) WritePin(pin int, level gpio.Level) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	if pin == d.clockPin {
		d.clock = append(d.clock, level)
	}
	return nil
}

func (d *scriptDriver) ReadPin(pin int) (gpio.Level, error) {
	if d.readErr != nil {
		return gpio.Low, d.readErr
	}
	if pin != d.dataPin || len(d.data) == 0 {
		return gpio.Low, nil
	}
	level := d.data[0]
	d.data = d.data[1:]
	return level, nil
}

func (d *scriptDriver) Close() error { return nil }

// pushConversion appends one conversion to the data script: a ready
// indication followed by the 24 wire bits, MSB first.
func (d *scriptDriver) pushConversion(wire int32) {
	d.data = append(d.data, gpio.Low)
	for i := 23; i >= 0; i-- {
		level := gpio.Low
		if wire&(1<<uint(i)) != 0 {
			level = gpio.High
		}
		d.data = append(d.data, level)
	}
}

func (d *scriptDriver) clockHighs() int {
	n := 0
	for _, level := range d.clock {
		if level == gpio.High {
			n++
		}
	}
	return n
}

func newScriptDriver() *scriptDriver {
	return &scriptDriver{dataPin: 5, clockPin: 6}
}

func TestHX711SignExtension(t *testing.T) {
	tests := []struct {
		name string
		wire int32
		want float64
	}{
		{"zero", 0x000000, 0},
		{"one", 0x000001, 1},
		{"max positive", 0x7FFFFF, 8388607},
		{"min negative", 0x800000, -8388608},
		{"minus one", 0xFFFFFF, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := newScriptDriver()
			drv.pushConversion(tt.wire)

			hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin, Gain: 128})
			got, err := hx.ReadAverage(1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHX711GainPulses(t *testing.T) {
	tests := []struct {
		name string
		gain int
		want int
	}{
		{"channel A gain 128", 128, 25},
		{"channel B gain 32", 32, 26},
		{"channel A gain 64", 64, 27},
		{"unset defaults to 128", 0, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := newScriptDriver()
			drv.pushConversion(0x000100)

			hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin, Gain: tt.gain})
			_, err := hx.ReadAverage(1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, drv.clockHighs())
		})
	}
}

func TestHX711ReadAverage(t *testing.T) {
	drv := newScriptDriver()
	drv.pushConversion(100)
	drv.pushConversion(200)
	drv.pushConversion(300)

	hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin, Gain: 128})
	got, err := hx.ReadAverage(3)
	require.NoError(t, err)
	assert.InDelta(t, 200, got, 1e-9)
}

func TestHX711TareAndCalibration(t *testing.T) {
	drv := newScriptDriver()
	// Two tare conversions, then one loaded reading 50 g above the
	// offset at 420 counts per gram.
	drv.pushConversion(1000)
	drv.pushConversion(1000)
	drv.pushConversion(1000 + 420*50)

	hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin, Gain: 128, TareSamples: 2})
	hx.SetScale(420)

	require.NoError(t, hx.Tare())

	got, err := hx.ReadAverage(1)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, got, 1e-9)
}

func TestHX711IsReady(t *testing.T) {
	drv := newScriptDriver()
	drv.data = []gpio.Level{gpio.High, gpio.Low}

	hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin})
	assert.False(t, hx.IsReady(), "high data line should read not-ready")
	assert.True(t, hx.IsReady(), "low data line should read ready")

	drv.readErr = errors.New("bus fault")
	assert.False(t, hx.IsReady(), "read error should read not-ready")
}

func TestHX711ReadErrors(t *testing.T) {
	drv := newScriptDriver()
	hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin})

	drv.readErr = errors.New("bus fault")
	_, err := hx.ReadAverage(1)
	require.Error(t, err)

	drv.readErr = nil
	drv.writeErr = errors.New("bus fault")
	_, err = hx.ReadAverage(1)
	require.Error(t, err)
}

func TestHX711ZeroCalibrationFactor(t *testing.T) {
	drv := newScriptDriver()
	hx := NewHX711(drv, Config{DataPin: drv.dataPin, ClockPin: drv.clockPin})
	hx.SetScale(0)

	_, err := hx.ReadAverage(1)
	require.Error(t, err)
}
