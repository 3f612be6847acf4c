package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ScaleConfig holds the wiring and calibration of the load cell ADC.
type ScaleConfig struct {
	DataPin           int     `yaml:"data_pin"`           // HX711 DOUT (BCM)
	ClockPin          int     `yaml:"clock_pin"`          // HX711 PD_SCK (BCM)
	Gain              int     `yaml:"gain"`               // 128 or 64 (channel A), 32 (channel B)
	CalibrationFactor float64 `yaml:"calibration_factor"` // raw counts per gram
	SampleCount       int     `yaml:"sample_count"`       // conversions averaged per reading
	TareSamples       int     `yaml:"tare_samples"`       // conversions averaged into the tare offset
}

// CameraConfig describes the frame source.
// Type selects a concrete implementation ("usb" or "mock").
type CameraConfig struct {
	Type        string `yaml:"type"`         // "usb" or "mock"
	Device      int    `yaml:"device"`       // V4L2 device index for "usb"
	Width       int    `yaml:"width"`        // requested frame width
	Height      int    `yaml:"height"`       // requested frame height
	JPEGQuality int    `yaml:"jpeg_quality"` // 1-100
	BufferCount int    `yaml:"buffer_count"` // frame pool size
	GrabMode    string `yaml:"grab_mode"`    // "when_empty" or "latest"
	PwdnPin     int    `yaml:"pwdn_pin"`     // sensor power-down line (BCM). 0 = not wired. Active HIGH.
	ResetPin    int    `yaml:"reset_pin"`    // sensor reset line (BCM). 0 = not wired. Active LOW.
}

// MonitorConfig tunes placement detection.
type MonitorConfig struct {
	WeightThresholdG float64 `yaml:"weight_threshold_g"` // minimum rise that counts as a placement
	IntervalMs       int     `yaml:"interval_ms"`        // polling cycle length
}

// ConsoleConfig points at the bench serial console.
// An empty port means stdout only.
type ConsoleConfig struct {
	Port string `yaml:"port"` // e.g., /dev/ttyUSB0
	Baud int    `yaml:"baud"`
}

// SimConfig tunes the simulated scale used with mock GPIO.
type SimConfig struct {
	ItemWeightG    float64 `yaml:"item_weight_g"`    // simulated item weight
	ItemPeriodMs   int     `yaml:"item_period_ms"`   // time between simulated placements
	ItemDurationMs int     `yaml:"item_duration_ms"` // how long the item stays on the tray
	NoiseG         float64 `yaml:"noise_g"`          // peak-to-peak baseline noise
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO and simulated hardware (dev/test)
}

// Config aggregates all application configuration.
type Config struct {
	Scale    ScaleConfig    `yaml:"scale"`
	Camera   CameraConfig   `yaml:"camera"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Console  ConsoleConfig  `yaml:"console"`
	Sim      SimConfig      `yaml:"sim"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// MaxConfigFileBytes caps how large a config file Load accepts.
const MaxConfigFileBytes = 64 * 1024

// Default returns the built-in configuration: real hardware on the
// production pins, QVGA captures, 50 g threshold, 500 ms polling.
func Default() *Config {
	return &Config{
		Scale: ScaleConfig{
			DataPin:           5,
			ClockPin:          6,
			Gain:              128,
			CalibrationFactor: 420.0,
			SampleCount:       5,
			TareSamples:       10,
		},
		Camera: CameraConfig{
			Type:        "usb",
			Device:      0,
			Width:       320,
			Height:      240,
			JPEGQuality: 80,
			BufferCount: 2,
			GrabMode:    "when_empty",
		},
		Monitor: MonitorConfig{
			WeightThresholdG: 50.0,
			IntervalMs:       500,
		},
		Console: ConsoleConfig{
			Baud: 115200,
		},
		Sim: SimConfig{
			ItemWeightG:    350,
			ItemPeriodMs:   20000,
			ItemDurationMs: 8000,
			NoiseG:         0.4,
		},
		Defaults: DefaultsConfig{
			DebugLevel: 2,
		},
	}
}

// Load reads a YAML file on top of the built-in defaults. A missing
// file is not an error: the node boots on defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), MaxConfigFileBytes)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Scale.Gain {
	case 32, 64, 128:
	default:
		return fmt.Errorf("scale.gain must be 32, 64 or 128, got %d", c.Scale.Gain)
	}
	if c.Scale.CalibrationFactor == 0 {
		return fmt.Errorf("scale.calibration_factor must be non-zero")
	}
	if c.Scale.SampleCount <= 0 {
		c.Scale.SampleCount = 5
	}
	if c.Scale.TareSamples <= 0 {
		c.Scale.TareSamples = 10
	}
	if !c.Defaults.MockGPIO {
		if c.Scale.DataPin <= 0 {
			return fmt.Errorf("scale.data_pin is required")
		}
		if c.Scale.ClockPin <= 0 {
			return fmt.Errorf("scale.clock_pin is required")
		}
		if c.Scale.DataPin == c.Scale.ClockPin {
			return fmt.Errorf("scale.data_pin and scale.clock_pin must differ")
		}
	}

	switch c.Camera.Type {
	case "usb", "mock":
	default:
		return fmt.Errorf("camera.type must be \"usb\" or \"mock\", got %q", c.Camera.Type)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0, got %d", c.Camera.Device)
	}
	if c.Camera.Width <= 0 {
		c.Camera.Width = 320
	}
	if c.Camera.Height <= 0 {
		c.Camera.Height = 240
	}
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		return fmt.Errorf("camera.jpeg_quality must be between 1 and 100, got %d", c.Camera.JPEGQuality)
	}
	if c.Camera.BufferCount <= 0 {
		c.Camera.BufferCount = 2
	}
	switch c.Camera.GrabMode {
	case "", "when_empty", "latest":
	default:
		return fmt.Errorf("camera.grab_mode must be \"when_empty\" or \"latest\", got %q", c.Camera.GrabMode)
	}

	if c.Monitor.WeightThresholdG <= 0 {
		return fmt.Errorf("monitor.weight_threshold_g must be > 0, got %.2f", c.Monitor.WeightThresholdG)
	}
	if c.Monitor.IntervalMs <= 0 {
		c.Monitor.IntervalMs = 500
	}

	if c.Console.Baud <= 0 {
		c.Console.Baud = 115200
	}

	return nil
}

// ApplyEnv overlays TRAYNODE_* environment variables on the loaded
// configuration. Used on bench rigs where editing the installed config
// file is inconvenient.
//
//	TRAYNODE_DEBUG   debug level 0-4
//	TRAYNODE_MOCK    "true"/"1" for mock hardware
//	TRAYNODE_CONSOLE serial console port
func (c *Config) ApplyEnv() {
	c.Defaults.DebugLevel = getEnvAsInt("TRAYNODE_DEBUG", c.Defaults.DebugLevel)
	c.Defaults.MockGPIO = getEnvAsBool("TRAYNODE_MOCK", c.Defaults.MockGPIO)
	c.Console.Port = getEnv("TRAYNODE_CONSOLE", c.Console.Port)
}

// Interval returns the polling cycle length.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Monitor.IntervalMs) * time.Millisecond
}

// SimItemPeriod returns the time between simulated placements.
func (c *Config) SimItemPeriod() time.Duration {
	return time.Duration(c.Sim.ItemPeriodMs) * time.Millisecond
}

// SimItemDuration returns how long the simulated item stays.
func (c *Config) SimItemDuration() time.Duration {
	return time.Duration(c.Sim.ItemDurationMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
