// Package config defines the immutable configuration value passed to the
// benchmarker, scheduler, workers, and aggregator. It is loaded once
// (gopkg.in/yaml.v2, the same library the teacher's main.go used for
// labench.yaml) and never re-read by any downstream component (spec §9
// "Global configuration state").
//
// Parsing CLI flags and environment variables into this value is an
// out-of-scope external collaborator per spec §1; this package only owns
// the value object and its validation.
package config

import (
	"fmt"
	"time"
)

// RateType selects a Rate Strategy variant (spec §4.4).
type RateType string

const (
	RateSynchronous RateType = "synchronous"
	RateThroughput  RateType = "throughput"
	RateConcurrent  RateType = "concurrent"
	RateConstant    RateType = "constant"
	RatePoisson     RateType = "poisson"
	RateSweep       RateType = "sweep"
)

// Config is the recognized configuration surface from spec §6, folded
// into one immutable value before any component is constructed.
type Config struct {
	Target string `yaml:"Target"`
	Model  string `yaml:"Model"`

	RateType RateType `yaml:"RateType"`
	Rate     float64  `yaml:"Rate"`

	MaxSeconds  time.Duration `yaml:"MaxSeconds"`
	MaxRequests uint64        `yaml:"MaxRequests"`

	WarmupPercent    float64 `yaml:"WarmupPercent"`
	WarmupRequests   uint64  `yaml:"WarmupRequests"`
	CooldownPercent  float64 `yaml:"CooldownPercent"`
	CooldownRequests uint64  `yaml:"CooldownRequests"`

	MaxConcurrency uint64        `yaml:"MaxConcurrency"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`

	RandomSeed int64 `yaml:"RandomSeed"`

	// DrainTimeout bounds how long the Scheduler waits for in-flight
	// records to complete after it stops issuing new dispatches (spec
	// §4.5 Drain). Not in the spec's recognized table verbatim but
	// required by its Drain semantics, so it is exposed with a sane
	// default rather than hardcoded.
	DrainTimeout time.Duration `yaml:"DrainTimeout"`

	// SweepSteps is the number of constant(r) steps the sweep meta
	// strategy runs between the observed synchronous and throughput
	// rates (resolves spec §9's sweep-step Open Question).
	SweepSteps int `yaml:"SweepSteps"`

	// ExactQuantileLimit is the measured-phase sample count below which the
	// Aggregator computes percentiles exactly over retained samples rather
	// than estimating from the bounded-memory histogram (spec §4.7). Zero
	// disables exact quantiles, always using the histogram estimate.
	ExactQuantileLimit int `yaml:"ExactQuantileLimit"`

	// Protocol selects HTTP/1.1 or HTTP/2 for the backend transport,
	// mirroring the teacher's config.Protocol field.
	Protocol string `yaml:"Protocol"`

	OutputPath string `yaml:"OutFile"`
}

// Default returns a Config with the documented defaults applied, mirroring
// the teacher's main.go inline-default pattern (RequestTimeout, Clients,
// Protocol fallbacks) but centralized so every caller sees the same
// defaults.
func Default() Config {
	return Config{
		RateType:           RateThroughput,
		RequestTimeout:     30 * time.Second,
		MaxConcurrency:     50,
		DrainTimeout:       10 * time.Second,
		SweepSteps:         5,
		ExactQuantileLimit: 2000,
		Protocol:           "HTTP/1.1",
	}
}

// Validate rejects configurations the engine cannot run, per spec §7's
// config_invalid taxonomy entry: fatal, surfaced before any measurement.
func (c Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("config_invalid: Target must be set")
	}
	switch c.RateType {
	case RateSynchronous, RateThroughput, RateConcurrent, RateConstant, RatePoisson, RateSweep:
	default:
		return fmt.Errorf("config_invalid: unrecognized RateType %q", c.RateType)
	}
	switch c.RateType {
	case RateConcurrent, RateConstant, RatePoisson:
		if c.Rate <= 0 {
			return fmt.Errorf("config_invalid: Rate must be positive for RateType %q", c.RateType)
		}
	}
	if c.MaxConcurrency == 0 {
		return fmt.Errorf("config_invalid: MaxConcurrency must be positive")
	}
	if c.WarmupPercent < 0 || c.WarmupPercent >= 1 {
		return fmt.Errorf("config_invalid: WarmupPercent must be in [0,1)")
	}
	if c.CooldownPercent < 0 || c.CooldownPercent >= 1 {
		return fmt.Errorf("config_invalid: CooldownPercent must be in [0,1)")
	}
	if c.MaxSeconds == 0 && c.MaxRequests == 0 {
		return fmt.Errorf("config_invalid: at least one of MaxSeconds or MaxRequests must be set")
	}
	return nil
}
