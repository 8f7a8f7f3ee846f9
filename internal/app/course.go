// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/navsense/internal/config"
	"github.com/relabs-tech/navsense/internal/gps"
	"github.com/relabs-tech/navsense/internal/readings"
)

// RunCourseMonitor reads NMEA sentences from the GPS serial port and publishes
// course-over-ground fixes annotated with the last compass heading, so the
// magnetic heading can be sanity-checked against GPS while moving.
func RunCourseMonitor(ctx context.Context, logger *logrus.Logger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDCourse)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// Track the latest compass heading off the readings topic.
	var (
		mu          sync.RWMutex
		lastHeading int
		haveHeading bool
	)
	readToken := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s readings.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			return
		}
		if s.Variant != "compass" || s.Info == "N.C." {
			return
		}
		mu.Lock()
		lastHeading = s.Heading
		haveHeading = true
		mu.Unlock()
	})
	readToken.Wait()
	if readToken.Error() != nil {
		return readToken.Error()
	}

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              cfg.GPSBaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	logger.WithFields(logrus.Fields{
		"port": serialOpts.PortName,
		"baud": serialOpts.BaudRate,
	}).Info("GPS serial port open")

	reader := bufio.NewReader(port)
	var current gps.Fix

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			logger.WithError(err).Warn("GPS read error")
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}
		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)

		current.Time = m.Time.String()
		current.Date = m.Date.String()
		current.Latitude = m.Latitude
		current.Longitude = m.Longitude
		current.SpeedKnots = m.Speed
		current.CourseDeg = m.Course
		current.Validity = string(m.Validity)

		check := gps.CourseCheck{Fix: current}
		mu.RLock()
		if haveHeading {
			check.HeadingDeg = lastHeading
			check.DeltaDeg = gps.AngularDelta(current.CourseDeg, float64(lastHeading))
		}
		mu.RUnlock()

		payload, err := json.Marshal(check)
		if err != nil {
			logger.WithError(err).Warn("course marshal error")
			continue
		}
		if token := client.Publish(cfg.TopicCourse, 0, true, payload); token.Wait() && token.Error() != nil {
			logger.WithError(token.Error()).Warn("course publish error")
		}
	}
}
