package racerbridge

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Forward Direction = "F"
	Reverse Direction = "R"
	Neutral Direction = "N"
)

// BatteryReading is one sample of the battery power monitor.
type BatteryReading struct {
	Voltage float64 // V
	Current float64 // mA
	Power   float64 // W

	// set when the reading was synthesised because the sensor failed
	Simulated bool
}

type BatteryStatus struct {
	Voltage float64
	Percent float64
	Current float64
	Power   float64
}

// TelemetryRecord is produced once per tick. SpeedKmh and RPM are only set
// when a CAN frame carrying them arrived during that tick.
type TelemetryRecord struct {
	Battery   BatteryStatus
	Direction Direction
	SpeedKmh  *float64
	RPM       *float64
	Timestamp time.Time
}

type batteryJSON struct {
	Voltage float64 `json:"voltage"`
	Percent float64 `json:"percent"`
	Current float64 `json:"current"`
	Power   float64 `json:"power"`
}

type telemetryJSON struct {
	Battery   batteryJSON `json:"battery"`
	Direction Direction   `json:"direction"`
	Timestamp float64     `json:"timestamp"`
	SpeedKmh  *float64    `json:"speed_kmh,omitempty"`
	RPM       *float64    `json:"rpm,omitempty"`
}

func (t TelemetryRecord) MarshalJSON() ([]byte, error) {
	out := telemetryJSON{
		Battery: batteryJSON{
			Voltage: round(t.Battery.Voltage, 2),
			Percent: round(t.Battery.Percent, 1),
			Current: round(t.Battery.Current, 1),
			Power:   round(t.Battery.Power, 2),
		},
		Direction: t.Direction,
		Timestamp: UnixSeconds(t.Timestamp),
	}
	if t.SpeedKmh != nil {
		v := round(*t.SpeedKmh, 2)
		out.SpeedKmh = &v
	}
	if t.RPM != nil {
		v := round(*t.RPM, 1)
		out.RPM = &v
	}
	return json.Marshal(out)
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// UnixSeconds is t as fractional seconds since the epoch.
func UnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// Byte is the single character wire encoding of the direction.
func (d Direction) Byte() uint8 {
	if len(d) == 0 {
		return uint8(Neutral[0])
	}
	return d[0]
}
