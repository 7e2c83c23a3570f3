// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml"
)

// EnvPrefix is prepended to the envconfig names, e.g. GNSS_WATCH_SOCKET.
const EnvPrefix = "GNSS_WATCH"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Socket     string `toml:"socket" envconfig:"SOCKET"`
	OwnerGroup string `toml:"group" envconfig:"GROUP"`
	// Driver is one of "gnss", "serial" or "sim"
	Driver          string `toml:"device_driver" envconfig:"DRIVER"`
	DevicePath      string `toml:"device_path" envconfig:"DEVICE_PATH"`
	BaudRate        int    `toml:"device_baud_rate" envconfig:"BAUD_RATE"`
	ProtocolVersion int    `toml:"protocol_version" envconfig:"PROTOCOL_VERSION"`

	// OnDemand starts the receiver only while socket or websocket clients
	// are connected.
	OnDemand          bool    `toml:"on_demand" envconfig:"ON_DEMAND"`
	MovementThreshold float64 `toml:"movement_threshold" envconfig:"MOVEMENT_THRESHOLD"`
	ReportIntervalMs  int     `toml:"report_interval_ms" envconfig:"REPORT_INTERVAL_MS"`
	StartTimeoutMs    int     `toml:"start_timeout_ms" envconfig:"START_TIMEOUT_MS"`

	LogLevel  string `toml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `toml:"log_format" envconfig:"LOG_FORMAT"`

	// Optional outputs, disabled when empty
	HTTPListen         string `toml:"http_listen" envconfig:"HTTP_LISTEN"`
	TrackPath          string `toml:"track_path" envconfig:"TRACK_PATH"`
	TrackRetentionDays int    `toml:"track_retention_days" envconfig:"TRACK_RETENTION_DAYS"`
	MQTTBroker         string `toml:"mqtt_broker" envconfig:"MQTT_BROKER"`
	MQTTClientID       string `toml:"mqtt_client_id" envconfig:"MQTT_CLIENT_ID"`
	MQTTUsername       string `toml:"mqtt_username" envconfig:"MQTT_USERNAME"`
	MQTTPassword       string `toml:"mqtt_password" envconfig:"MQTT_PASSWORD"`
	MQTTPrefix         string `toml:"mqtt_prefix" envconfig:"MQTT_PREFIX"`

	// Route of the "sim" driver
	SimLatitude   float64 `toml:"sim_latitude" envconfig:"SIM_LATITUDE"`
	SimLongitude  float64 `toml:"sim_longitude" envconfig:"SIM_LONGITUDE"`
	SimSpeedKnots float64 `toml:"sim_speed_knots" envconfig:"SIM_SPEED_KNOTS"`
	SimCourse     float64 `toml:"sim_course" envconfig:"SIM_COURSE"`
}

func Parse(file string) (c *Config, err error) {
	contents, err := os.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
		return
	}

	c = &Config{}

	if err = toml.Unmarshal(contents, c); err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
	}

	return
}

// Load reads file, if it exists, then applies environment overrides and
// defaults and validates the result.
func Load(file string) (c *Config, err error) {
	c = &Config{}
	if file != "" {
		if c, err = Parse(file); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			c, err = &Config{}, nil
		}
	}

	if err = envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("config.Load(): %w", err)
	}

	c.applyDefaults()
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return
}

func (c *Config) applyDefaults() {
	if c.Socket == "" {
		c.Socket = "/var/run/gnss_watch.sock"
	}
	if c.Driver == "" {
		c.Driver = "gnss"
	}
	if c.DevicePath == "" && c.Driver == "gnss" {
		c.DevicePath = "/dev/gnss0"
	}
	if c.BaudRate == 0 {
		c.BaudRate = 9600
	}
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = 2
	}
	if c.StartTimeoutMs == 0 {
		c.StartTimeoutMs = 30000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.TrackRetentionDays == 0 {
		c.TrackRetentionDays = 7
	}
	if c.MQTTClientID == "" {
		c.MQTTClientID = "gnss_watch"
	}
	if c.MQTTPrefix == "" {
		c.MQTTPrefix = "gnss_watch"
	}
}

func (c *Config) Validate() error {
	invalid := func(format string, a ...interface{}) error {
		return fmt.Errorf("config.Validate(): %w: %s", ErrInvalid, fmt.Sprintf(format, a...))
	}

	switch c.Driver {
	case "gnss", "serial":
		if c.DevicePath == "" {
			return invalid("device_path is required for driver %q", c.Driver)
		}
	case "sim":
	default:
		return invalid("unknown device_driver %q", c.Driver)
	}
	if c.BaudRate < 0 {
		return invalid("device_baud_rate %d", c.BaudRate)
	}
	if c.ProtocolVersion != 1 && c.ProtocolVersion != 2 {
		return invalid("protocol_version %d, want 1 or 2", c.ProtocolVersion)
	}
	if c.MovementThreshold < 0 || math.IsNaN(c.MovementThreshold) {
		return invalid("movement_threshold %v", c.MovementThreshold)
	}
	if c.ReportIntervalMs < 0 {
		return invalid("report_interval_ms %d", c.ReportIntervalMs)
	}
	if c.StartTimeoutMs < 0 {
		return invalid("start_timeout_ms %d", c.StartTimeoutMs)
	}
	if c.TrackRetentionDays < 0 {
		return invalid("track_retention_days %d", c.TrackRetentionDays)
	}
	if c.SimLatitude < -90 || c.SimLatitude > 90 || c.SimLongitude < -180 || c.SimLongitude > 180 {
		return invalid("sim position %v, %v", c.SimLatitude, c.SimLongitude)
	}
	return nil
}

func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalMs) * time.Millisecond
}

func (c *Config) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutMs) * time.Millisecond
}

func (c *Config) TrackRetention() time.Duration {
	return time.Duration(c.TrackRetentionDays) * 24 * time.Hour
}
