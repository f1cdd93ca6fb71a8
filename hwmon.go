package racerbridge

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// HwmonBattery reads the INA219 power monitor through the Linux hwmon sysfs
// interface.
type HwmonBattery struct {
	dir string
}

func NewHwmonBattery(dir string) *HwmonBattery {
	return &HwmonBattery{dir: dir}
}

func (h *HwmonBattery) ReadBattery() (BatteryReading, error) {
	// bus voltage in mV
	mv, err := h.readInt("in1_input")
	if err != nil {
		return BatteryReading{}, err
	}
	ma, err := h.readInt("curr1_input")
	if err != nil {
		return BatteryReading{}, err
	}
	// power in uW
	uw, err := h.readInt("power1_input")
	if err != nil {
		return BatteryReading{}, err
	}
	return BatteryReading{
		Voltage: float64(mv) / 1000,
		Current: float64(ma),
		Power:   float64(uw) / 1e6,
	}, nil
}

func (h *HwmonBattery) readInt(name string) (int64, error) {
	path := filepath.Join(h.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read %s", path)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to parse %s", path)
	}
	return v, nil
}
