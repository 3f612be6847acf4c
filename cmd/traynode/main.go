package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gsy/lightstore/internal/config"
	"github.com/gsy/lightstore/internal/console"
	"github.com/gsy/lightstore/internal/debug"
	"github.com/gsy/lightstore/internal/hw/camera"
	"github.com/gsy/lightstore/internal/hw/gpio"
	"github.com/gsy/lightstore/internal/hw/scale"
	"github.com/gsy/lightstore/internal/logic/capture"
	"github.com/gsy/lightstore/internal/logic/monitor"
)

func main() {
	// CLI flags
	cfgPath := flag.String("config", defaultConfigPath(), "path to config file")
	mockFlag := flag.Bool("mock", false, "force mock GPIO and simulated hardware")
	debugFlag := flag.Int("debug", -1, "override debug level 0-4 (-1 = use config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Optional .env for bench rigs; silently absent in production.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	cfg.ApplyEnv()
	applyFlags(cfg, *mockFlag, *debugFlag)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)

	// Mirror output onto the bench serial console when configured.
	// A missing console is not fatal, stdout still works.
	if cfg.Console.Port != "" {
		con, err := console.Open(cfg.Console.Port, cfg.Console.Baud)
		if err != nil {
			debug.Error(fmt.Errorf("serial console: %w", err))
		} else {
			defer con.Close()
			debug.SetOutput(io.MultiWriter(os.Stdout, con))
			debug.Verbose("Mirroring output to %s", con.Name())
		}
	}

	debug.Summary("Tray Node - Phase 1: Sensing")
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)

	// Initialize GPIO driver
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	// Initialize scale. Failures leave the node degraded, not dead:
	// every cycle then logs a read error until the sensor comes back.
	debug.Step(2, "Initializing scale")
	debug.PrintStruct("Scale config", cfg.Scale)
	scl := newScaleFromConfig(gpioDriver, cfg)
	bringUpScale(scl, cfg)

	// Initialize camera, degraded on failure as well.
	debug.Step(3, "Initializing camera")
	debug.PrintStruct("Camera config", cfg.Camera)
	pulseCameraPins(gpioDriver, cfg)
	cam, err := newCameraFromConfig(cfg)
	if err != nil {
		debug.Error(fmt.Errorf("camera init failed: %w", err))
		debug.Info("Check the camera cable and device index %d", cfg.Camera.Device)
		cam = camera.NewUnavailable(err)
	}
	defer func() {
		if err := cam.Close(); err != nil {
			log.Printf("closing camera failed: %v", err)
		}
	}()
	debug.Value("Camera type", cfg.Camera.Type)

	mon := monitor.New(scl, cfg.Monitor.WeightThresholdG, cfg.Scale.SampleCount)
	orch := capture.NewOrchestrator(cam, capture.LogProcessor{})
	watcher := capture.NewWatcher(mon, orch, cfg.Interval())

	debug.Summary("Setup complete. Monitoring weight.")
	debug.Info("Place items on the tray to trigger capture.")

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("watcher: %v", err)
	}
	debug.Info("Shutting down.")
}

// defaultConfigPath prefers TRAYNODE_CONFIG, falling back to the
// installed default.
func defaultConfigPath() string {
	if path := os.Getenv("TRAYNODE_CONFIG"); path != "" {
		return path
	}
	return filepath.Join("configs", "default.yaml")
}

// applyFlags applies CLI overrides. The mock flag only forces mock on;
// a config with mock_gpio true cannot be un-mocked from the CLI.
func applyFlags(cfg *config.Config, mock bool, debugLevel int) {
	if mock {
		cfg.Defaults.MockGPIO = true
	}
	if debugLevel >= 0 {
		cfg.Defaults.DebugLevel = debugLevel
	}
}

// newScaleFromConfig selects the scale implementation: simulated under
// mock GPIO, HX711 otherwise.
func newScaleFromConfig(g gpio.Driver, cfg *config.Config) scale.Scale {
	if cfg.Defaults.MockGPIO {
		return scale.NewSim(scale.SimConfig{
			ItemWeight:   cfg.Sim.ItemWeightG,
			ItemPeriod:   cfg.SimItemPeriod(),
			ItemDuration: cfg.SimItemDuration(),
			Noise:        cfg.Sim.NoiseG,
		})
	}
	return scale.NewHX711(g, scale.Config{
		DataPin:     cfg.Scale.DataPin,
		ClockPin:    cfg.Scale.ClockPin,
		Gain:        cfg.Scale.Gain,
		TareSamples: cfg.Scale.TareSamples,
	})
}

// bringUpScale calibrates and tares the scale.
func bringUpScale(s scale.Scale, cfg *config.Config) {
	s.SetScale(cfg.Scale.CalibrationFactor)
	if !s.IsReady() {
		debug.Error(errors.New("scale not responding"))
		debug.Info("Check HX711 wiring: DT->GPIO%d, SCK->GPIO%d", cfg.Scale.DataPin, cfg.Scale.ClockPin)
		return
	}
	if err := s.Tare(); err != nil {
		debug.Error(fmt.Errorf("tare failed: %w", err))
		return
	}
	debug.Info("Scale initialized and tared")
}

// pulseCameraPins drives the optional sensor power-down and reset
// lines before the device is opened. Pins at 0 are not wired.
func pulseCameraPins(g gpio.Driver, cfg *config.Config) {
	if cfg.Camera.PwdnPin > 0 {
		// PWDN is active high; drive low to power the sensor.
		_ = g.SetupPin(cfg.Camera.PwdnPin, gpio.Output)
		_ = g.WritePin(cfg.Camera.PwdnPin, gpio.Low)
	}
	if cfg.Camera.ResetPin > 0 {
		// Reset is active low; pulse it, then release.
		_ = g.SetupPin(cfg.Camera.ResetPin, gpio.Output)
		_ = g.WritePin(cfg.Camera.ResetPin, gpio.Low)
		time.Sleep(10 * time.Millisecond)
		_ = g.WritePin(cfg.Camera.ResetPin, gpio.High)
		time.Sleep(10 * time.Millisecond)
	}
}

// newCameraFromConfig selects a camera implementation based on
// configuration. Mock GPIO forces the mock camera regardless of type.
func newCameraFromConfig(cfg *config.Config) (camera.Camera, error) {
	if cfg.Defaults.MockGPIO {
		return camera.NewMock(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.BufferCount), nil
	}

	switch cfg.Camera.Type {
	case "mock":
		return camera.NewMock(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.BufferCount), nil
	case "usb":
		grab, err := camera.ParseGrabMode(cfg.Camera.GrabMode)
		if err != nil {
			return nil, err
		}
		return camera.NewUSB(camera.USBConfig{
			Device:      cfg.Camera.Device,
			Width:       cfg.Camera.Width,
			Height:      cfg.Camera.Height,
			JPEGQuality: cfg.Camera.JPEGQuality,
			BufferCount: cfg.Camera.BufferCount,
			GrabMode:    grab,
		})
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}
