package forwarder

import (
	"encoding/json"
	"io"

	"github.com/jd3nn1s/racerbridge"
	"github.com/pkg/errors"
)

// JSONForwarder writes each record as a single line of JSON, the format read
// by the dashboard from the bridge's stdout.
type JSONForwarder struct {
	w io.Writer
}

func NewJSONForwarder(w io.Writer) *JSONForwarder {
	return &JSONForwarder{w: w}
}

func (j *JSONForwarder) Forward(telemetry *racerbridge.TelemetryRecord) error {
	data, err := json.Marshal(telemetry)
	if err != nil {
		return errors.Wrap(err, "unable to marshal telemetry")
	}
	data = append(data, '\n')
	if _, err := j.w.Write(data); err != nil {
		return errors.Wrap(err, "unable to write telemetry")
	}
	return nil
}
