package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reading is one scripted polling cycle: a value, a read failure, or a
// cycle where the sensor never becomes ready.
type reading struct {
	grams    float64
	err      error
	notReady bool
}

// fakeScale serves scripted readings in order, one per polling cycle.
type fakeScale struct {
	readings    []reading
	pos         int
	lastSamples int
}

func (f *fakeScale) IsReady() bool {
	if f.pos >= len(f.readings) {
		return false
	}
	if f.readings[f.pos].notReady {
		f.pos++
		return false
	}
	return true
}

func (f *fakeScale) SetScale(factor float64) {}

func (f *fakeScale) Tare() error { return nil }

func (f *fakeScale) ReadAverage(samples int) (float64, error) {
	f.lastSamples = samples
	r := f.readings[f.pos]
	f.pos++
	return r.grams, r.err
}

type cycle struct {
	kind   Kind
	weight float64
	delta  float64
}

func TestMonitorScenarios(t *testing.T) {
	busErr := errors.New("bus fault")

	tests := []struct {
		name      string
		threshold float64
		readings  []reading
		want      []cycle
	}{
		{
			name:      "stable tray stays quiet",
			threshold: 50,
			readings:  []reading{{grams: 0}, {grams: 0}, {grams: 0}},
			want: []cycle{
				{NoEvent, 0, 0},
				{NoEvent, 0, 0},
				{NoEvent, 0, 0},
			},
		},
		{
			name:      "single placement",
			threshold: 50,
			readings:  []reading{{grams: 0}, {grams: 60}},
			want: []cycle{
				{NoEvent, 0, 0},
				{Placement, 60, 60},
			},
		},
		{
			name:      "placement then settling",
			threshold: 50,
			readings:  []reading{{grams: 0}, {grams: 60}, {grams: 65}},
			want: []cycle{
				{NoEvent, 0, 0},
				{Placement, 60, 60},
				{NoEvent, 65, 5},
			},
		},
		{
			name:      "removal rearms detection",
			threshold: 50,
			readings:  []reading{{grams: 0}, {grams: 60}, {grams: 5}, {grams: 60}},
			want: []cycle{
				{NoEvent, 0, 0},
				{Placement, 60, 60},
				{NoEvent, 5, -55},
				{Placement, 60, 55},
			},
		},
		{
			name:      "read error preserves baseline",
			threshold: 50,
			readings:  []reading{{grams: 0}, {err: busErr}, {grams: 60}},
			want: []cycle{
				{NoEvent, 0, 0},
				{kind: ReadError},
				{Placement, 60, 60},
			},
		},
		{
			name:      "not ready preserves baseline",
			threshold: 50,
			readings:  []reading{{grams: 0}, {notReady: true}, {grams: 60}},
			want: []cycle{
				{NoEvent, 0, 0},
				{kind: ReadError},
				{Placement, 60, 60},
			},
		},
		{
			name:      "rise equal to threshold is not a placement",
			threshold: 50,
			readings:  []reading{{grams: 0}, {grams: 50}},
			want: []cycle{
				{NoEvent, 0, 0},
				{NoEvent, 50, 50},
			},
		},
		{
			name:      "rise just above threshold fires",
			threshold: 50,
			readings:  []reading{{grams: 0}, {grams: 50.0001}},
			want: []cycle{
				{NoEvent, 0, 0},
				{Placement, 50.0001, 50.0001},
			},
		},
		{
			name:      "negative reading is a valid baseline",
			threshold: 50,
			readings:  []reading{{grams: -3}, {grams: 55}},
			want: []cycle{
				{NoEvent, -3, -3},
				{Placement, 55, 58},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mon := New(&fakeScale{readings: tt.readings}, tt.threshold, 5)

			for i, want := range tt.want {
				got := mon.Poll()
				assert.Equal(t, want.kind, got.Kind, "cycle %d kind", i)
				if want.kind == ReadError {
					assert.Error(t, got.Err, "cycle %d error", i)
					continue
				}
				assert.InDelta(t, want.weight, got.Weight, 1e-9, "cycle %d weight", i)
				assert.InDelta(t, want.delta, got.Delta, 1e-9, "cycle %d delta", i)
			}
		})
	}
}

func TestMonitorBaselineAfterErrors(t *testing.T) {
	scale := &fakeScale{readings: []reading{
		{grams: 40},
		{err: errors.New("bus fault")},
		{notReady: true},
	}}
	mon := New(scale, 50, 5)

	mon.Poll()
	require.InDelta(t, 40, mon.Baseline(), 1e-9)

	mon.Poll()
	assert.InDelta(t, 40, mon.Baseline(), 1e-9, "read error must not move the baseline")

	mon.Poll()
	assert.InDelta(t, 40, mon.Baseline(), 1e-9, "not-ready cycle must not move the baseline")
}

func TestMonitorSampleCount(t *testing.T) {
	scale := &fakeScale{readings: []reading{{grams: 1}, {grams: 2}}}

	mon := New(scale, 50, 5)
	mon.Poll()
	assert.Equal(t, 5, scale.lastSamples)

	mon = New(scale, 50, 0)
	mon.Poll()
	assert.Equal(t, 1, scale.lastSamples, "sample count below 1 should clamp to 1")
}
