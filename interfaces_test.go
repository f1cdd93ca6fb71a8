package racerbridge

import (
	"context"

	"github.com/brutella/can"
	"github.com/jd3nn1s/racerbridge/racercan"
	"github.com/pkg/errors"
)

type sensorStub struct {
	startChan chan struct{}
	errChan   chan error
	fnChan    chan func()
}

type canBusStub struct {
	sensorStub
	callbacks racercan.Callbacks
}

func createSensorStub() *sensorStub {
	ret := sensorStub{
		startChan: make(chan struct{}),
		errChan:   make(chan error),
		fnChan:    make(chan func()),
	}
	return &ret
}

func (s *sensorStub) Close() error {
	return nil
}

func (s *sensorStub) start(ctx context.Context) error {
	select {
	case s.startChan <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.errChan:
			return err
		case fn := <-s.fnChan:
			fn()
		}
	}
}

func createCANBusStub() *canBusStub {
	return &canBusStub{
		sensorStub: *createSensorStub(),
	}
}

func (c *canBusStub) Start(ctx context.Context, callbacks racercan.Callbacks) error {
	c.callbacks = callbacks
	return c.sensorStub.start(ctx)
}

type batteryStub struct {
	reading BatteryReading
	err     error
	calls   int
}

func (b *batteryStub) ReadBattery() (BatteryReading, error) {
	b.calls++
	if b.err != nil {
		return BatteryReading{}, b.err
	}
	return b.reading, nil
}

type frameSourceStub struct {
	batches  [][]can.Frame
	maxAsked []int
}

func (f *frameSourceStub) Poll(max int) []can.Frame {
	f.maxAsked = append(f.maxAsked, max)
	if len(f.batches) == 0 {
		return nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch
}

type forwarderStub struct {
	telemetry []TelemetryRecord
	err       error
}

func (fwd *forwarderStub) Forward(telemetry *TelemetryRecord) error {
	fwd.telemetry = append(fwd.telemetry, *telemetry)
	return fwd.err
}

var errSensor = errors.New("i2c read failed")
