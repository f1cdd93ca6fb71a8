package racerbridge

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/brutella/can"
)

// SimulatedBattery produces a deterministic, slowly varying 2S pack reading
// derived from the wall clock.
type SimulatedBattery struct {
	now func() time.Time
}

func NewSimulatedBattery(now func() time.Time) *SimulatedBattery {
	if now == nil {
		now = time.Now
	}
	return &SimulatedBattery{now: now}
}

func (s *SimulatedBattery) ReadBattery() (BatteryReading, error) {
	t := UnixSeconds(s.now())
	voltage := 7.8 + 0.2*math.Mod(t, 10)/10
	return BatteryReading{
		Voltage:   voltage,
		Current:   150.0 + 50.0*math.Mod(t, 5)/5,
		Power:     voltage * 0.15,
		Simulated: true,
	}, nil
}

// SimulatedFrames ramps the vehicle speed between 0 and maxSimSpeed and back,
// one km/h per poll, emitting a speed and an rpm frame each time.
type SimulatedFrames struct {
	speedID uint32
	speed   int
	down    bool
}

const (
	maxSimSpeed  = 30
	simRPMPerKmh = 40
)

func NewSimulatedFrames(speedID uint32) *SimulatedFrames {
	return &SimulatedFrames{speedID: speedID}
}

func (s *SimulatedFrames) Poll(max int) []can.Frame {
	if max <= 0 {
		return nil
	}
	frames := make([]can.Frame, 0, 2)
	frames = append(frames, can.Frame{
		ID:     s.speedID,
		Length: 8,
		Data:   [8]uint8{uint8(s.speed)},
	})
	rpm := [8]uint8{}
	binary.LittleEndian.PutUint32(rpm[0:4], math.Float32bits(float32(s.speed*simRPMPerKmh)))
	frames = append(frames, can.Frame{
		ID:     s.speedID + 1,
		Length: 4,
		Data:   rpm,
	})

	if s.down {
		s.speed--
	} else {
		s.speed++
	}
	if s.speed == maxSimSpeed {
		s.down = true
	} else if s.speed == 0 {
		s.down = false
	}

	if len(frames) > max {
		frames = frames[:max]
	}
	return frames
}
