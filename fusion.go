package racerbridge

import (
	"math"
	"time"

	"github.com/jd3nn1s/racerbridge/racercan"
)

const (
	// throttle dead zone around zero
	throttleDeadZone = 0.05
	// speed above which a rolling vehicle counts as moving
	rollingSpeedKmh = 0.1
)

func DirectionFromThrottle(throttle float64) Direction {
	switch {
	case throttle > throttleDeadZone:
		return Forward
	case throttle < -throttleDeadZone:
		return Reverse
	default:
		return Neutral
	}
}

// Fuse builds the record for one tick. CAN speed only breaks a neutral
// throttle reading, it never overrides an explicit direction.
func Fuse(reading BatteryReading, soc float64, throttle float64, can racercan.Result, now time.Time) TelemetryRecord {
	direction := DirectionFromThrottle(throttle)
	if reading.Simulated {
		direction = Forward
	}
	if can.SpeedKmh != nil && math.Abs(*can.SpeedKmh) > rollingSpeedKmh && direction == Neutral {
		direction = Forward
	}

	return TelemetryRecord{
		Battery: BatteryStatus{
			Voltage: reading.Voltage,
			Percent: soc,
			Current: reading.Current,
			Power:   reading.Power,
		},
		Direction: direction,
		SpeedKmh:  can.SpeedKmh,
		RPM:       can.RPM,
		Timestamp: now,
	}
}
