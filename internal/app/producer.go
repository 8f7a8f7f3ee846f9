// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the driver, transports, MQTT and the consumer front-ends
// into runnable programs.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/navsense/internal/config"
	"github.com/relabs-tech/navsense/internal/events"
	"github.com/relabs-tech/navsense/internal/navdrv"
	"github.com/relabs-tech/navsense/internal/navlink"
	"github.com/relabs-tech/navsense/internal/readings"
)

// NewLogger builds the logrus logger shared by all binaries.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// OpenTransport opens the configured link to the peripheral.
func OpenTransport(cfg *config.Config) (navlink.Transport, error) {
	switch cfg.LinkTransport {
	case "serial":
		return navlink.OpenSerial(cfg.SerialPort, cfg.SerialBaud)
	case "i2c":
		return navlink.OpenI2C(cfg.I2CBus, cfg.I2CAddr)
	case "sim":
		return navlink.NewSim(), nil
	}
	return nil, fmt.Errorf("app: unknown transport %q", cfg.LinkTransport)
}

func parseVariant(s string) navdrv.Variant {
	if s == "dual_lidar" {
		return navdrv.VariantDualLidar
	}
	return navdrv.VariantCompass
}

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// eventNames maps the wire codes to readable names for the MQTT payload.
var eventNames = map[events.Code]string{
	events.ObjectNear:      "object_near",
	events.ObjectNearLeft:  "object_near_left",
	events.ObjectNearRight: "object_near_right",
	events.ObjectDetected:  "object_detected",
}

// RunProducer owns the single polling context for one sensor port: it polls
// the primary channel, drives the per-poll update hook, and bridges snapshots
// and raised events onto MQTT. Blocks until ctx is cancelled.
func RunProducer(ctx context.Context, logger *logrus.Logger) error {
	cfg := config.Get()

	link, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer link.Close()
	logger.WithField("transport", cfg.LinkTransport).Info("sensor link open")

	bus := events.New()
	sensor, err := navdrv.NewSensor(link, bus, navdrv.Config{
		Variant:           parseVariant(cfg.SensorVariant),
		Source:            events.SourceID(cfg.SourceID),
		NearThreshold:     cfg.NearThreshold,
		FarThreshold:      cfg.FarThreshold,
		MovementThreshold: cfg.MovementThreshold,
	})
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return fmt.Errorf("app: mqtt connect: %w", err)
	}
	defer client.Disconnect(250)
	logger.WithField("broker", cfg.MQTTBroker).Info("connected to MQTT")

	// Bridge every raised event onto the events topic. Handlers run off the
	// poll loop; the paho client is safe for that.
	for code, name := range eventNames {
		code, name := code, name
		sensor.OnEvent(code, func() {
			payload, err := json.Marshal(readings.Event{
				Source: cfg.SourceID,
				Code:   uint16(code),
				Name:   name,
				Time:   time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				logger.WithError(err).Warn("event marshal failed")
				return
			}
			client.Publish(cfg.TopicEvents, 0, false, payload)
			logger.WithField("event", name).Debug("event raised")
		})
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return pollLoop(ctx, cfg, logger, sensor, client)
	})

	if err := grp.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func pollLoop(ctx context.Context, cfg *config.Config, logger *logrus.Logger,
	sensor *navdrv.Sensor, client mqtt.Client) error {

	ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Millisecond)
	defer ticker.Stop()

	var prev int
	first := true

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			curr, err := sensor.Query()
			if err != nil {
				logger.WithError(err).Warn("poll failed")
				publishSnapshot(cfg, logger, client, notConnectedSnapshot(cfg, sensor, t))
				continue
			}
			if first {
				// No previous value yet; a first poll never counts as movement.
				prev = curr
				first = false
			}
			sensor.Update(prev, curr)
			prev = curr

			snap := buildSnapshot(cfg, sensor, curr, t)
			publishSnapshot(cfg, logger, client, snap)
		}
	}
}

func buildSnapshot(cfg *config.Config, sensor *navdrv.Sensor, primary int, t time.Time) readings.Snapshot {
	snap := readings.Snapshot{
		Source:  cfg.SourceID,
		Variant: sensor.Variant().String(),
		Primary: primary,
		Level:   sensor.Level().String(),
		Info:    sensor.Info(),
		Time:    t.UTC().Format(time.RFC3339),
	}

	if sensor.Variant() == navdrv.VariantCompass {
		snap.Heading = primary
		if v, err := sensor.Pitch(); err == nil {
			snap.Pitch = v
		}
		if v, err := sensor.Roll(); err == nil {
			snap.Roll = v
		}
	}

	rangeChannels := []struct {
		ch  navdrv.Channel
		dst *int
	}{
		{navdrv.RangeFrontLeft, &snap.RangeFrontLeft},
		{navdrv.RangeFrontRight, &snap.RangeFrontRight},
		{navdrv.RangeRear, &snap.RangeRear},
		{navdrv.RangeLeftSide, &snap.RangeLeftSide},
		{navdrv.RangeRightSide, &snap.RangeRightSide},
	}
	for _, rc := range rangeChannels {
		if v, err := sensor.Range(rc.ch); err == nil {
			*rc.dst = v
		}
	}
	return snap
}

func notConnectedSnapshot(cfg *config.Config, sensor *navdrv.Sensor, t time.Time) readings.Snapshot {
	return readings.Snapshot{
		Source:  cfg.SourceID,
		Variant: sensor.Variant().String(),
		Info:    sensor.Info(), // "N.C." on a dead link
		Level:   sensor.Level().String(),
		Time:    t.UTC().Format(time.RFC3339),
	}
}

func publishSnapshot(cfg *config.Config, logger *logrus.Logger, client mqtt.Client, snap readings.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.WithError(err).Warn("snapshot marshal failed")
		return
	}
	if token := client.Publish(cfg.TopicReadings, 0, true, payload); token.Wait() && token.Error() != nil {
		logger.WithError(token.Error()).Warn("snapshot publish failed")
	}
}
