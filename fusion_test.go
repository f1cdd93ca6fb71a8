package racerbridge

import (
	"testing"
	"time"

	"github.com/jd3nn1s/racerbridge/racercan"
	"github.com/stretchr/testify/assert"
)

func speed(v float64) racercan.Result {
	return racercan.Result{SpeedKmh: &v}
}

func TestDirectionFromThrottle(t *testing.T) {
	assert.Equal(t, Forward, DirectionFromThrottle(0.2))
	assert.Equal(t, Reverse, DirectionFromThrottle(-0.2))
	assert.Equal(t, Neutral, DirectionFromThrottle(0))
	assert.Equal(t, Neutral, DirectionFromThrottle(0.05))
	assert.Equal(t, Neutral, DirectionFromThrottle(-0.05))
	assert.Equal(t, Forward, DirectionFromThrottle(0.051))
}

func TestFuseDirection(t *testing.T) {
	now := time.Unix(100, 0)
	reading := BatteryReading{Voltage: 7.9}

	assert.Equal(t, Neutral, Fuse(reading, 50, 0, racercan.Result{}, now).Direction)
	assert.Equal(t, Forward, Fuse(reading, 50, 0, speed(5), now).Direction)
	// throttle wins over CAN speed
	assert.Equal(t, Reverse, Fuse(reading, 50, -0.2, speed(5), now).Direction)
	assert.Equal(t, Forward, Fuse(reading, 50, 0.2, speed(0), now).Direction)
	// rolling threshold
	assert.Equal(t, Neutral, Fuse(reading, 50, 0, speed(0.1), now).Direction)
	assert.Equal(t, Forward, Fuse(reading, 50, 0, speed(-0.5), now).Direction)
}

func TestFuseSimulatedForward(t *testing.T) {
	rec := Fuse(BatteryReading{Voltage: 7.9, Simulated: true}, 50, -0.5, racercan.Result{}, time.Unix(1, 0))
	assert.Equal(t, Forward, rec.Direction)
}

func TestFuseRecord(t *testing.T) {
	now := time.Unix(100, 0)
	rpm := 1200.0
	can := speed(12.5)
	can.RPM = &rpm

	rec := Fuse(BatteryReading{Voltage: 7.9, Current: 160, Power: 1.2}, 71.5, 0.3, can, now)
	assert.Equal(t, BatteryStatus{Voltage: 7.9, Percent: 71.5, Current: 160, Power: 1.2}, rec.Battery)
	assert.Equal(t, Forward, rec.Direction)
	assert.Equal(t, 12.5, *rec.SpeedKmh)
	assert.Equal(t, 1200.0, *rec.RPM)
	assert.Equal(t, now, rec.Timestamp)

	rec = Fuse(BatteryReading{}, 0, 0, racercan.Result{}, now)
	assert.Nil(t, rec.SpeedKmh)
	assert.Nil(t, rec.RPM)
}
