package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Tuning holds the calibration constants of the engine and its detectors.
// The defaults reproduce the shipped behavior; none of them has a derivation
// beyond that, so they are exposed rather than baked in.
type Tuning struct {
	AlertThreshold    int           `envconfig:"ALERT_THRESHOLD" default:"10"`
	EventCapacity     int           `envconfig:"EVENT_CAPACITY" default:"100"`
	TimingThreshold   time.Duration `envconfig:"TIMING_THRESHOLD" default:"100ms"`
	TimingInterval    time.Duration `envconfig:"TIMING_INTERVAL" default:"1s"`
	ConsoleInterval   time.Duration `envconfig:"CONSOLE_INTERVAL" default:"2s"`
	RedirectDelay     time.Duration `envconfig:"REDIRECT_DELAY" default:"5s"`
	RedirectURL       string        `envconfig:"REDIRECT_URL" default:"about:blank"`
	BlurRadius        string        `envconfig:"BLUR_RADIUS" default:"5px"`
	RootSelector      string        `envconfig:"ROOT_SELECTOR" default:"body"`
	WarningDuration   time.Duration `envconfig:"WARNING_DURATION" default:"3s"`
	WatermarkMinEvery time.Duration `envconfig:"WATERMARK_MIN_EVERY" default:"5s"`
	WatermarkMaxEvery time.Duration `envconfig:"WATERMARK_MAX_EVERY" default:"15s"`
	WatermarkMinLife  time.Duration `envconfig:"WATERMARK_MIN_LIFE" default:"3s"`
	WatermarkMaxLife  time.Duration `envconfig:"WATERMARK_MAX_LIFE" default:"8s"`
	MaxWatermarks     int           `envconfig:"MAX_WATERMARKS" default:"3"`
	IndicatorDelay    time.Duration `envconfig:"INDICATOR_DELAY" default:"1s"`
	IndicatorLifetime time.Duration `envconfig:"INDICATOR_LIFETIME" default:"3s"`
}

// DefaultTuning returns the shipped calibration.
func DefaultTuning() Tuning {
	return Tuning{
		AlertThreshold:    10,
		EventCapacity:     100,
		TimingThreshold:   100 * time.Millisecond,
		TimingInterval:    time.Second,
		ConsoleInterval:   2 * time.Second,
		RedirectDelay:     5 * time.Second,
		RedirectURL:       "about:blank",
		BlurRadius:        "5px",
		RootSelector:      "body",
		WarningDuration:   3 * time.Second,
		WatermarkMinEvery: 5 * time.Second,
		WatermarkMaxEvery: 15 * time.Second,
		WatermarkMinLife:  3 * time.Second,
		WatermarkMaxLife:  8 * time.Second,
		MaxWatermarks:     3,
		IndicatorDelay:    time.Second,
		IndicatorLifetime: 3 * time.Second,
	}
}

// EnvPrefix prefixes every tuning environment variable.
const EnvPrefix = "PAGEWARDEN"

// LoadTuning reads PAGEWARDEN_* environment variables over the defaults.
func LoadTuning() (Tuning, error) {
	var t Tuning
	if err := envconfig.Process(EnvPrefix, &t); err != nil {
		return Tuning{}, fmt.Errorf("failed to load tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate rejects calibrations the detectors cannot run with.
func (t Tuning) Validate() error {
	switch {
	case t.AlertThreshold < 0:
		return fmt.Errorf("alert threshold must not be negative")
	case t.EventCapacity < 1:
		return fmt.Errorf("event capacity must be at least 1")
	case t.TimingInterval <= 0 || t.ConsoleInterval <= 0:
		return fmt.Errorf("detector intervals must be positive")
	case t.WatermarkMinEvery <= 0 || t.WatermarkMaxEvery < t.WatermarkMinEvery:
		return fmt.Errorf("watermark interval bounds are invalid")
	case t.WatermarkMinLife <= 0 || t.WatermarkMaxLife < t.WatermarkMinLife:
		return fmt.Errorf("watermark lifetime bounds are invalid")
	}
	return nil
}
