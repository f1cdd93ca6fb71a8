package racerbridge

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/racerbridge/racercan"
	"github.com/jd3nn1s/racerbridge/soc"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	VehicleStandard = "standard"
	VehiclePro      = "pro"
)

type BatteryConfig struct {
	HwmonDir string `toml:"hwmon_dir"`
}

// UDPConfig is disabled when Server is empty.
type UDPConfig struct {
	Server string `toml:"server"`
	Port   int    `toml:"port"`
}

// MQTTConfig is disabled when Broker is empty. Credentials are never read from
// the config file.
type MQTTConfig struct {
	Broker      string `toml:"broker"`
	TopicPrefix string `toml:"topic_prefix"`
	ClientID    string `toml:"client_id"`
	Username    string `toml:"-"`
	Password    string `toml:"-"`
}

type Config struct {
	// Vehicle labels the MQTT topic and logs. It does not select hardware,
	// Battery.HwmonDir does.
	Vehicle  string        `toml:"vehicle"`
	Interval time.Duration `toml:"interval"`

	Estimator soc.Config      `toml:"estimator"`
	CAN       racercan.Config `toml:"can"`
	Battery   BatteryConfig   `toml:"battery"`
	UDP       UDPConfig       `toml:"udp"`
	MQTT      MQTTConfig      `toml:"mqtt"`
}

func DefaultConfig() Config {
	return Config{
		Vehicle:   VehicleStandard,
		Interval:  500 * time.Millisecond,
		Estimator: soc.DefaultConfig(),
		CAN:       racercan.DefaultConfig(),
		Battery: BatteryConfig{
			HwmonDir: "/sys/class/hwmon/hwmon0",
		},
		MQTT: MQTTConfig{
			TopicPrefix: "racerbridge",
			ClientID:    "racerbridge",
		},
	}
}

func LoadConfig(fileName string) (Config, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader decodes TOML over the defaults, so missing keys keep
// their default value.
func LoadConfigFromReader(r io.Reader) (Config, error) {
	config := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to decode configuration")
	}
	for _, key := range md.Undecoded() {
		log.WithField("key", key.String()).Warn("unknown configuration key")
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.Vehicle != VehicleStandard && c.Vehicle != VehiclePro {
		return errors.Errorf("unknown vehicle type %q", c.Vehicle)
	}
	if c.Interval <= 0 {
		return errors.Errorf("update interval must be positive: %v", c.Interval)
	}
	if c.CAN.ReconnectDelay <= 0 {
		return errors.Errorf("can reconnect delay must be positive: %v", c.CAN.ReconnectDelay)
	}
	if c.UDP.Server != "" && (c.UDP.Port <= 0 || c.UDP.Port > 65535) {
		return errors.Errorf("invalid udp port %d", c.UDP.Port)
	}
	return nil
}
