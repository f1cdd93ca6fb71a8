package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"
	"unsafe"

	"github.com/jd3nn1s/racerbridge"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Header struct {
	Type uint8
}

const (
	TypeTelemetry = 1
)

const (
	FlagSpeed uint8 = 1 << iota
	FlagRPM
)

// Telemetry is the little endian wire layout of a telemetry packet body.
type Telemetry struct {
	Voltage   float32
	Percent   float32
	Current   float32
	Power     float32
	Direction uint8
	// FlagSpeed and FlagRPM mark which optional values are present
	Flags     uint8
	SpeedKmh  float32
	RPM       float32
	Timestamp float64
}

var maxTelemetrySize = int(unsafe.Sizeof(Header{}) + unsafe.Sizeof(Telemetry{}))

// limit on packets per second
const sendInterval = 100 * time.Millisecond

type UDPForwarder struct {
	Config racerbridge.UDPConfig

	conn    net.Conn
	fwdChan chan *racerbridge.TelemetryRecord
}

func NewUDPForwarder(config racerbridge.UDPConfig) (*UDPForwarder, error) {
	udp := &UDPForwarder{
		Config:  config,
		fwdChan: make(chan *racerbridge.TelemetryRecord, 1),
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func (udp *UDPForwarder) Close() error {
	return udp.conn.Close()
}

func (udp *UDPForwarder) Forward(telemetry *racerbridge.TelemetryRecord) error {
	telemCopy := *telemetry
	select {
	// copy telemetry as we're processing it on another go-routine
	case udp.fwdChan <- &telemCopy:
	default:
		// if channel is full, skip
	}
	return nil
}

// Start sends at most one packet per sendInterval until ctx is done.
func (udp *UDPForwarder) Start(ctx context.Context) error {
	limiter := time.NewTicker(sendInterval)
	defer limiter.Stop()
	for {
		select {
		case <-limiter.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case t := <-udp.fwdChan:
			if err := udp.forward(t); err != nil {
				log.Error("unable to forward telemetry to server ", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func toWire(telem *racerbridge.TelemetryRecord) Telemetry {
	w := Telemetry{
		Voltage:   float32(telem.Battery.Voltage),
		Percent:   float32(telem.Battery.Percent),
		Current:   float32(telem.Battery.Current),
		Power:     float32(telem.Battery.Power),
		Direction: telem.Direction.Byte(),
		Timestamp: racerbridge.UnixSeconds(telem.Timestamp),
	}
	if telem.SpeedKmh != nil {
		w.Flags |= FlagSpeed
		w.SpeedKmh = float32(*telem.SpeedKmh)
	}
	if telem.RPM != nil {
		w.Flags |= FlagRPM
		w.RPM = float32(*telem.RPM)
	}
	return w
}

func (udp *UDPForwarder) forward(telem *racerbridge.TelemetryRecord) error {
	buf := bytes.NewBuffer(make([]byte, 0, maxTelemetrySize))
	hdr := Header{
		Type: TypeTelemetry,
	}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "unable to write udp packet header")
	}
	wire := toWire(telem)
	if err := binary.Write(buf, binary.LittleEndian, &wire); err != nil {
		return errors.Wrap(err, "unable to write telemetry udp packet")
	}
	_, err := udp.conn.Write(buf.Bytes())
	return err
}

func (udp *UDPForwarder) connect() error {
	writeBufSize := maxTelemetrySize * 2

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s:%d", udp.Config.Server, udp.Config.Port)
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}
