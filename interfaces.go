package racerbridge

import (
	"context"

	"github.com/brutella/can"
	"github.com/jd3nn1s/racerbridge/racercan"
)

type BatterySource interface {
	ReadBattery() (BatteryReading, error)
}

// FrameSource returns up to max frames that have already arrived. It never
// blocks.
type FrameSource interface {
	Poll(max int) []can.Frame
}

type ThrottleSource interface {
	Throttle() float64
}

type Forwarder interface {
	Forward(telemetry *TelemetryRecord) error
}

type CANBus interface {
	Close() error
	Start(context.Context, racercan.Callbacks) error
}

// StaticThrottle reports a fixed throttle position.
type StaticThrottle float64

func (s StaticThrottle) Throttle() float64 {
	return float64(s)
}
