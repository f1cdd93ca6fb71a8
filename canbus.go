package racerbridge

import (
	"context"
	"time"

	"github.com/brutella/can"
	"github.com/jd3nn1s/racerbridge/racercan"
	log "github.com/sirupsen/logrus"
)

// frames buffered between the bus reader and the tick loop
const frameBufferSize = 64

// to allow testing
var canBusConnect = func(p string) (CANBus, error) {
	c, err := racercan.Connect(p)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CANReader keeps a CAN interface open in the background and queues received
// frames for Poll.
type CANReader struct {
	c         CANBus
	ifName    string
	reconnect time.Duration
	frames    chan can.Frame
}

func NewCANReader(config racercan.Config) *CANReader {
	return &CANReader{
		ifName:    config.Interface,
		reconnect: config.ReconnectDelay,
		frames:    make(chan can.Frame, frameBufferSize),
	}
}

func (r *CANReader) Open() error {
	c, err := canBusConnect(r.ifName)
	r.c = c
	return err
}

func (r *CANReader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}

func (r *CANReader) Start(ctx context.Context) error {
	return r.c.Start(ctx, racercan.Callbacks{
		Frame: r.queue,
	})
}

func (r *CANReader) Name() string {
	return "canbus"
}

func (r *CANReader) queue(frame can.Frame) {
	select {
	case r.frames <- frame:
	default:
		log.WithField("canID", frame.ID).Debug("frame buffer full, dropping frame")
	}
}

func (r *CANReader) Poll(max int) []can.Frame {
	var frames []can.Frame
	for len(frames) < max {
		select {
		case f := <-r.frames:
			frames = append(frames, f)
		default:
			return frames
		}
	}
	return frames
}

// Run blocks until ctx is done.
func (r *CANReader) Run(ctx context.Context) {
	err := retry(ctx, r, r.reconnect)
	if err != nil {
		log.Errorf("canbus done: %v", err)
	}
}
