package racerbridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHwmon(t *testing.T, dir string, values map[string]string) {
	for name, v := range values {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(v), 0644))
	}
}

func TestHwmonBattery(t *testing.T) {
	dir := t.TempDir()
	writeHwmon(t, dir, map[string]string{
		"in1_input":    "7912\n",
		"curr1_input":  "-153\n",
		"power1_input": "1210000\n",
	})

	reading, err := NewHwmonBattery(dir).ReadBattery()
	require.NoError(t, err)
	assert.InDelta(t, 7.912, reading.Voltage, 1e-9)
	assert.Equal(t, -153.0, reading.Current)
	assert.InDelta(t, 1.21, reading.Power, 1e-9)
	assert.False(t, reading.Simulated)
}

func TestHwmonBatteryMissing(t *testing.T) {
	dir := t.TempDir()
	writeHwmon(t, dir, map[string]string{
		"in1_input": "7912\n",
	})

	_, err := NewHwmonBattery(dir).ReadBattery()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "curr1_input")
}

func TestHwmonBatteryGarbage(t *testing.T) {
	dir := t.TempDir()
	writeHwmon(t, dir, map[string]string{
		"in1_input":    "volts",
		"curr1_input":  "0",
		"power1_input": "0",
	})

	_, err := NewHwmonBattery(dir).ReadBattery()
	assert.Error(t, err)
}
