// Package racerbridge fuses battery and CAN bus readings of a small electric
// vehicle into one telemetry record per tick.
package racerbridge

import (
	"context"
	"time"

	"github.com/jd3nn1s/racerbridge/racercan"
	"github.com/jd3nn1s/racerbridge/soc"
	log "github.com/sirupsen/logrus"
)

// Bridge owns the estimator and decoder state. Tick must not be called
// concurrently.
type Bridge struct {
	config Config

	battery   BatterySource
	simulated BatterySource
	frames    FrameSource
	throttle  ThrottleSource

	estimator *soc.Estimator
	decoder   *racercan.Decoder

	forwarders []Forwarder
	telemetry  TelemetryRecord

	now func() time.Time
}

// NewBridge falls back to simulated battery readings when battery is nil or
// fails. A nil frames source means no CAN bus.
func NewBridge(config Config, battery BatterySource, frames FrameSource) *Bridge {
	b := &Bridge{
		config:    config,
		battery:   battery,
		frames:    frames,
		throttle:  StaticThrottle(0),
		estimator: soc.NewEstimator(config.Estimator),
		decoder:   racercan.NewDecoder(config.CAN),
		now:       time.Now,
	}
	b.simulated = NewSimulatedBattery(func() time.Time {
		return b.now()
	})
	return b
}

func (b *Bridge) SetThrottle(throttle ThrottleSource) {
	b.throttle = throttle
}

func (b *Bridge) AddForwarder(fwd Forwarder) {
	b.forwarders = append(b.forwarders, fwd)
}

func (b *Bridge) Estimator() *soc.Estimator {
	return b.estimator
}

func (b *Bridge) Decoder() *racercan.Decoder {
	return b.decoder
}

// Telemetry is the record produced by the last tick.
func (b *Bridge) Telemetry() TelemetryRecord {
	return b.telemetry
}

// Tick runs one sampling step and forwards the resulting record.
func (b *Bridge) Tick() TelemetryRecord {
	now := b.now()
	reading := b.readBattery()

	var result racercan.Result
	if b.frames != nil {
		result = b.decoder.Decode(b.frames.Poll(b.decoder.Config().MaxFramesPerTick))
	}

	percent := b.estimator.Update(reading.Voltage, reading.Current, now)
	b.telemetry = Fuse(reading, percent, b.throttle.Throttle(), result, now)

	for _, fwd := range b.forwarders {
		if err := fwd.Forward(&b.telemetry); err != nil {
			log.WithField("err", err).Warn("unable to forward telemetry")
		}
	}
	return b.telemetry
}

func (b *Bridge) readBattery() BatteryReading {
	if b.battery != nil {
		reading, err := b.battery.ReadBattery()
		if err == nil {
			return reading
		}
		log.WithField("err", err).Warn("unable to read battery, using simulated data")
	}
	reading, _ := b.simulated.ReadBattery()
	return reading
}

// Run ticks at the configured interval until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()

	log.WithField("vehicle", b.config.Vehicle).
		WithField("interval", b.config.Interval).
		Info("bridge started")
	for {
		b.Tick()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
