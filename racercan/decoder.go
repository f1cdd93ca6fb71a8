// Package racercan reads speed and rpm frames off the vehicle CAN bus.
package racercan

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/brutella/can"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// flag bits SocketCAN keeps above the identifier
	effFlag uint32 = 0x80000000
	rtrFlag uint32 = 0x40000000
	errFlag uint32 = 0x20000000

	DefaultSpeedID          uint32 = 0x123
	DefaultMaxFramesPerTick        = 10
)

type Config struct {
	Interface string `toml:"interface"`
	SpeedID   uint32 `toml:"speed_id"`
	// frames carrying wheel sensor pulses per second, 0 disables
	PulseID          uint32 `toml:"pulse_id"`
	MaxFramesPerTick int    `toml:"max_frames"`
	// delay before reopening the interface after a failure
	ReconnectDelay time.Duration `toml:"reconnect"`

	SpeedFactor         float64 `toml:"speed_factor"`
	PulsesPerRevolution int     `toml:"pulses_per_revolution"`
}

func DefaultConfig() Config {
	return Config{
		Interface:           "can0",
		SpeedID:             DefaultSpeedID,
		MaxFramesPerTick:    DefaultMaxFramesPerTick,
		ReconnectDelay:      2 * time.Second,
		SpeedFactor:         0.72,
		PulsesPerRevolution: 20,
	}
}

func (c Config) RPMID() uint32 {
	return c.SpeedID + 1
}

// Result holds the values observed in a single batch of frames. A nil field
// means no frame of that kind arrived.
type Result struct {
	SpeedKmh *float64
	RPM      *float64
}

// Decoder turns batches of raw frames into speed and rpm readings and
// remembers the last value seen of each.
type Decoder struct {
	config Config

	lastSpeed *float64
	lastRPM   *float64
}

func NewDecoder(config Config) *Decoder {
	if config.MaxFramesPerTick < 1 {
		config.MaxFramesPerTick = 1
	}
	return &Decoder{
		config: config,
	}
}

func (d *Decoder) Config() Config {
	return d.config
}

// Decode processes at most MaxFramesPerTick frames. Frames that can't be
// decoded are dropped.
func (d *Decoder) Decode(frames []can.Frame) Result {
	if len(frames) > d.config.MaxFramesPerTick {
		log.WithField("frames", len(frames)).
			WithField("max", d.config.MaxFramesPerTick).
			Debug("dropping frames over per tick limit")
		frames = frames[:d.config.MaxFramesPerTick]
	}

	res := Result{}
	for _, frame := range frames {
		// only data frames carry readings
		if frame.ID&(rtrFlag|errFlag) != 0 {
			continue
		}
		var err error
		switch id := frame.ID &^ effFlag; {
		case id == d.config.SpeedID:
			var speed float64
			if speed, err = speedResult(frame); err == nil {
				res.SpeedKmh = &speed
			}
		case id == d.config.RPMID():
			var rpm float64
			if rpm, err = float32Result(frame); err == nil {
				res.RPM = &rpm
			}
		case d.config.PulseID != 0 && id == d.config.PulseID:
			err = d.pulseResult(frame, &res)
		default:
			continue
		}
		if err != nil {
			log.WithField("canID", frame.ID).
				WithField("err", err).
				Debug("dropping undecodable frame")
		}
	}

	if res.SpeedKmh != nil {
		speed := *res.SpeedKmh
		d.lastSpeed = &speed
	}
	if res.RPM != nil {
		rpm := *res.RPM
		d.lastRPM = &rpm
	}
	return res
}

// LastSpeed is the most recent speed decoded in any batch.
func (d *Decoder) LastSpeed() (float64, bool) {
	if d.lastSpeed == nil {
		return 0, false
	}
	return *d.lastSpeed, true
}

func (d *Decoder) LastRPM() (float64, bool) {
	if d.lastRPM == nil {
		return 0, false
	}
	return *d.lastRPM, true
}

func (d *Decoder) pulseResult(frame can.Frame, res *Result) error {
	pps, err := uint16Result(frame)
	if err != nil {
		return err
	}
	speed := float64(pps) * d.config.SpeedFactor
	res.SpeedKmh = &speed
	if d.config.PulsesPerRevolution > 0 {
		rpm := float64(pps) * 60 / float64(d.config.PulsesPerRevolution)
		res.RPM = &rpm
	}
	return nil
}

// speedResult accepts either a plain byte of km/h followed by zeros or a
// little endian float32.
func speedResult(frame can.Frame) (float64, error) {
	if frame.Length < 4 {
		return 0, errors.Errorf("incorrect frame size for speed: %v", frame.Length)
	}
	if frame.Data[1] == 0 && frame.Data[2] == 0 && frame.Data[3] == 0 {
		return float64(frame.Data[0]), nil
	}
	return float32Result(frame)
}

func float32Result(frame can.Frame) (float64, error) {
	if frame.Length < 4 {
		return 0, errors.Errorf("incorrect frame size for float32: %v", frame.Length)
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(frame.Data[0:4]))
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0, errors.Errorf("not a number: % x", frame.Data[0:4])
	}
	return float64(v), nil
}

func uint16Result(frame can.Frame) (int, error) {
	if frame.Length != 2 {
		return 0, errors.Errorf("incorrect frame size for uint16: %v", frame.Length)
	}
	return int(binary.LittleEndian.Uint16(frame.Data[0:2])), nil
}
