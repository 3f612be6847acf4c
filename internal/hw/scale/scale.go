package scale

// Scale is the high-level interface used by the rest of the application.
// It represents an abstract weight sensor, regardless of how it's read
// (bit-banged ADC, simulation, etc.). Readings are in grams after taring.
type Scale interface {
	// IsReady reports whether a new conversion is available to read.
	IsReady() bool

	// SetScale sets the calibration factor in raw ADC counts per gram.
	SetScale(factor float64)

	// Tare records the current raw average as the zero offset.
	// Call with the tray empty.
	Tare() error

	// ReadAverage reads the given number of conversions and returns
	// their average in grams, relative to the tare offset.
	ReadAverage(samples int) (float64, error)
}
