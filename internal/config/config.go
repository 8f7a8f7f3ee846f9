// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor link
	LinkTransport string // "serial", "i2c" or "sim"
	SerialPort    string
	SerialBaud    uint
	I2CBus        string
	I2CAddr       uint16

	// Driver
	SensorVariant     string // "compass" or "dual_lidar"
	SourceID          uint32
	PollInterval      int // milliseconds
	NearThreshold     int // native channel unit
	FarThreshold      int
	MovementThreshold int

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDCourse   string

	// Topics
	TopicReadings string
	TopicEvents   string
	TopicCourse   string

	// Web server
	WebServerPort int

	// GPS (course cross-check)
	GPSSerialPort string
	GPSBaudRate   uint

	// Display
	DisplayUpdateInterval int // milliseconds

	// Logging
	LogLevel string
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LinkTransport:         "serial",
		SerialBaud:            115200,
		I2CAddr:               0x11,
		SensorVariant:         "compass",
		SourceID:              1,
		PollInterval:          100,
		MovementThreshold:     1,
		MQTTClientIDProducer:  "navsense-producer",
		MQTTClientIDConsole:   "navsense-console",
		MQTTClientIDWeb:       "navsense-web",
		MQTTClientIDDisplay:   "navsense-display",
		MQTTClientIDCourse:    "navsense-course",
		TopicReadings:         "navsense/readings",
		TopicEvents:           "navsense/events",
		TopicCourse:           "navsense/course",
		WebServerPort:         8080,
		GPSBaudRate:           9600,
		DisplayUpdateInterval: 250,
		LogLevel:              "info",
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sensor link
	case "LINK_TRANSPORT":
		if value != "serial" && value != "i2c" && value != "sim" {
			return fmt.Errorf("LINK_TRANSPORT must be serial, i2c or sim, got %q", value)
		}
		c.LinkTransport = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = uint(baud)
	case "I2C_BUS":
		c.I2CBus = value
	case "I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid I2C_ADDR %q: %w", value, err)
		}
		c.I2CAddr = uint16(addr)

	// Driver
	case "SENSOR_VARIANT":
		if value != "compass" && value != "dual_lidar" {
			return fmt.Errorf("SENSOR_VARIANT must be compass or dual_lidar, got %q", value)
		}
		c.SensorVariant = value
	case "SOURCE_ID":
		id, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SOURCE_ID %q: %w", value, err)
		}
		c.SourceID = uint32(id)
	case "POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("POLL_INTERVAL must be positive, got %d", interval)
		}
		c.PollInterval = interval
	case "NEAR_THRESHOLD":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid NEAR_THRESHOLD %q: %w", value, err)
		}
		c.NearThreshold = v
	case "FAR_THRESHOLD":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FAR_THRESHOLD %q: %w", value, err)
		}
		c.FarThreshold = v
	case "MOVEMENT_THRESHOLD":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOVEMENT_THRESHOLD %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("MOVEMENT_THRESHOLD must be >= 0, got %d", v)
		}
		c.MovementThreshold = v

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_COURSE":
		c.MQTTClientIDCourse = value

	// Topics
	case "TOPIC_READINGS":
		c.TopicReadings = value
	case "TOPIC_EVENTS":
		c.TopicEvents = value
	case "TOPIC_COURSE":
		c.TopicCourse = value

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = uint(rate)

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.LinkTransport == "serial" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required for the serial transport")
	}
	if c.NearThreshold != 0 && c.FarThreshold != 0 && c.NearThreshold > c.FarThreshold {
		return fmt.Errorf("NEAR_THRESHOLD must not exceed FAR_THRESHOLD")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Runs once even
// if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
