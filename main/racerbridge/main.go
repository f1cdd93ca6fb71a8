package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jd3nn1s/racerbridge"
	"github.com/jd3nn1s/racerbridge/forwarder"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const configFileName = "racerbridge.toml"

var configPath = flag.String("config", "", "configuration file, defaults to "+configFileName+" next to the binary")
var interval = flag.Duration("interval", 0, "update interval, overrides the configuration file")
var vehicleType = flag.String("type", "", "vehicle type: standard or pro")
var testMode = flag.Bool("testmode", false, "generate simulated battery and CAN data")
var printTelemetry = flag.Bool("print-telemetry", true, "print telemetry to stdout as JSON lines")
var debug = flag.Bool("debug", false, "enable debug logging")
var logFile = flag.String("log-file", "", "write logs to a rotated file instead of stderr")

func main() {
	flag.Parse()

	log.SetLevel(log.InfoLevel)
	if *debug {
		log.SetLevel(log.DebugLevel)
	}
	// stdout carries telemetry
	log.SetOutput(os.Stderr)
	if *logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	if err := godotenv.Load(); err != nil {
		log.WithField("err", err).Debug("no .env file loaded")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	if *interval != 0 {
		cfg.Interval = *interval
	}
	if *vehicleType != "" {
		cfg.Vehicle = *vehicleType
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	cfg.MQTT.Username = os.Getenv("MQTT_USERNAME")
	cfg.MQTT.Password = os.Getenv("MQTT_PASSWORD")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var battery racerbridge.BatterySource
	var frames racerbridge.FrameSource
	if *testMode {
		log.Info("running in simulation mode")
		frames = racerbridge.NewSimulatedFrames(cfg.CAN.SpeedID)
	} else {
		battery = racerbridge.NewHwmonBattery(cfg.Battery.HwmonDir)
		reader := racerbridge.NewCANReader(cfg.CAN)
		go reader.Run(ctx)
		frames = reader
	}

	bridge := racerbridge.NewBridge(cfg, battery, frames)
	if *printTelemetry {
		bridge.AddForwarder(forwarder.NewJSONForwarder(os.Stdout))
	}
	if cfg.UDP.Server != "" {
		fwder, err := forwarder.NewUDPForwarder(cfg.UDP)
		if err != nil {
			log.Fatal("unable to create UDP forwarder: ", err)
		}
		defer fwder.Close()
		go fwder.Start(ctx)
		bridge.AddForwarder(fwder)
	}
	if cfg.MQTT.Broker != "" {
		fwder, err := forwarder.NewMQTTForwarder(cfg.MQTT, cfg.Vehicle)
		if err != nil {
			log.Fatal("unable to create MQTT forwarder: ", err)
		}
		defer fwder.Close()
		bridge.AddForwarder(fwder)
	}

	if err := bridge.Run(ctx); err != nil && err != context.Canceled {
		log.Error("bridge stopped: ", err)
		return
	}
	log.Info("bridge stopped by user")
}

func loadConfig() (racerbridge.Config, error) {
	if *configPath != "" {
		return racerbridge.LoadConfig(*configPath)
	}
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return racerbridge.Config{}, errors.Wrapf(err, "unable to determine binary location")
	}
	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Warn("no configuration file, using defaults")
		return racerbridge.DefaultConfig(), nil
	}
	return racerbridge.LoadConfig(path)
}
