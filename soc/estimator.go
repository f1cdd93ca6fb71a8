// Package soc estimates battery state of charge from resting voltage.
//
// Raw pack voltages pass through a median pre-filter, an open-circuit voltage
// lookup, exponential smoothing and a slew rate limiter so that the reported
// percentage is stable enough to display.
package soc

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	minCapacityMAh = 100
	minAlpha       = 0.01
	maxAlpha       = 1.0

	// floor on elapsed time between updates, in seconds
	minElapsed = 0.05
)

type Config struct {
	CapacityMAh    float64 `toml:"capacity_mah"`
	SmoothingAlpha float64 `toml:"smoothing_alpha"`
	// maximum change of the estimate in percent per second
	RiseRate      float64 `toml:"rise_rate"`
	FallRate      float64 `toml:"fall_rate"`
	HistoryWindow int     `toml:"history_window"`
}

func DefaultConfig() Config {
	return Config{
		CapacityMAh:    2500,
		SmoothingAlpha: 0.15,
		RiseRate:       2.0,
		FallRate:       3.0,
		HistoryWindow:  7,
	}
}

// Estimator holds the filter state of one battery pack. It is not safe for
// concurrent use.
type Estimator struct {
	config Config
	curve  Curve

	history     medianRing
	soc         float64
	stable      float64
	lastCurrent float64
	lastUpdate  time.Time
	initialized bool
}

// NewEstimator clamps out of range parameters rather than rejecting them.
func NewEstimator(config Config) *Estimator {
	if config.CapacityMAh < minCapacityMAh {
		config.CapacityMAh = minCapacityMAh
	}
	if math.IsNaN(config.SmoothingAlpha) {
		config.SmoothingAlpha = DefaultConfig().SmoothingAlpha
	}
	// alpha lives in (minAlpha, maxAlpha]
	if config.SmoothingAlpha <= minAlpha {
		config.SmoothingAlpha = math.Nextafter(minAlpha, maxAlpha)
	}
	config.SmoothingAlpha = math.Min(maxAlpha, config.SmoothingAlpha)
	if config.RiseRate <= 0 {
		config.RiseRate = DefaultConfig().RiseRate
	}
	if config.FallRate <= 0 {
		config.FallRate = DefaultConfig().FallRate
	}
	if config.HistoryWindow < 1 || config.HistoryWindow > maxHistoryWindow {
		log.WithField("historyWindow", config.HistoryWindow).
			Warn("history window out of range, clamping")
	}
	e := &Estimator{
		config:  config,
		curve:   LiPoCurve,
		history: newMedianRing(config.HistoryWindow),
	}
	e.config.HistoryWindow = e.history.size
	return e
}

func (e *Estimator) Config() Config {
	return e.config
}

// EstimateFromVoltage maps a pack voltage straight onto the OCV curve, ignoring
// any history.
func (e *Estimator) EstimateFromVoltage(voltage float64) float64 {
	cells := CellCount(voltage)
	return clampPercent(e.curve.Lookup(voltage / float64(cells)))
}

// Update feeds one raw sample taken at now and returns the smoothed estimate.
// Timestamps must not go backwards.
func (e *Estimator) Update(voltage, current float64, now time.Time) float64 {
	e.lastCurrent = current
	e.history.push(voltage)
	e.stable = e.history.median()

	// detect from the filtered voltage so a single spike can't flip the pack layout
	cells := CellCount(e.stable)
	target := clampPercent(e.curve.Lookup(e.stable / float64(cells)))

	if !e.initialized {
		e.soc = target
		e.lastUpdate = now
		e.initialized = true
		return e.soc
	}

	dt := math.Max(minElapsed, now.Sub(e.lastUpdate).Seconds())
	prev := e.soc
	smoothed := e.config.SmoothingAlpha*target + (1-e.config.SmoothingAlpha)*prev

	delta := smoothed - prev
	if maxRise := e.config.RiseRate * dt; delta > maxRise {
		smoothed = prev + maxRise
	} else if maxFall := e.config.FallRate * dt; delta < -maxFall {
		smoothed = prev - maxFall
	}

	e.soc = clampPercent(smoothed)
	e.lastUpdate = now
	return e.soc
}

// SOC is the last value returned by Update.
func (e *Estimator) SOC() float64 {
	return e.soc
}

// StableVoltage is the median filtered pack voltage of the last Update.
func (e *Estimator) StableVoltage() float64 {
	return e.stable
}

func (e *Estimator) LastCurrent() float64 {
	return e.lastCurrent
}

// RemainingCapacity in mAh.
func (e *Estimator) RemainingCapacity() float64 {
	return e.config.CapacityMAh * e.soc / 100
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
