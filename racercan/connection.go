package racercan

import (
	"context"

	"github.com/brutella/can"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type FrameFn func(frame can.Frame)

type Callbacks struct {
	Frame FrameFn
}

type CANBus interface {
	SubscribeFunc(can.HandlerFunc)
	ConnectAndPublish() error
	Disconnect() error
}

// Connection is a SocketCAN interface that hands every received frame to a
// callback.
type Connection struct {
	bus CANBus
	cb  Callbacks
}

// to allow testing
var newBus = func(name string) (CANBus, error) {
	return can.NewBusForInterfaceWithName(name)
}

func Connect(interfaceName string) (*Connection, error) {
	bus, err := newBus(interfaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open can interface %s", interfaceName)
	}

	c := &Connection{
		bus: bus,
	}
	return c, nil
}

// Start blocks reading frames until the bus fails or ctx is cancelled.
func (c *Connection) Start(ctx context.Context, cb Callbacks) error {
	c.cb = cb
	c.bus.SubscribeFunc(c.handleFrame)
	log.Info("CAN bus opened and subscribed")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			log.Infof("stopping can bus: %v", ctx.Err())
			if err := c.bus.Disconnect(); err != nil {
				log.WithField("err", err).Warn("unable to disconnect canbus after context")
			}
		case <-done:
		}
	}()

	return c.bus.ConnectAndPublish()
}

func (c *Connection) Close() error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	return c.bus.Disconnect()
}

func (c *Connection) handleFrame(frame can.Frame) {
	log.WithField("canID", frame.ID).
		WithField("length", frame.Length).
		Debug("received canbus frame")

	if c.cb.Frame == nil {
		log.WithField("canID", frame.ID).Debug("no callback registered")
		return
	}
	c.cb.Frame(frame)
}
