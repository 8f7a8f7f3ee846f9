// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/navsense/internal/config"
	"github.com/relabs-tech/navsense/internal/gps"
	"github.com/relabs-tech/navsense/internal/readings"
)

// RunConsole subscribes to the readings, events and course topics and prints
// a live text feed. Blocks until ctx is cancelled.
func RunConsole(ctx context.Context, logger *logrus.Logger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.WithField("broker", cfg.MQTTBroker).Info("console connected to MQTT")

	readToken := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s readings.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			logger.WithError(err).Warn("snapshot unmarshal error")
			return
		}
		if s.Variant == "compass" {
			fmt.Printf("[NAV ] %-8s HDG=%3d° PITCH=%4d° ROLL=%4d°  FL=%4d FR=%4d RR=%4d  level=%s\n",
				s.Info, s.Heading, s.Pitch, s.Roll,
				s.RangeFrontLeft, s.RangeFrontRight, s.RangeRear, s.Level)
			return
		}
		fmt.Printf("[NAV ] %-8s L=%4dmm R=%4dmm  FL=%4d FR=%4d RR=%4d  level=%s\n",
			s.Info, s.RangeLeftSide, s.RangeRightSide,
			s.RangeFrontLeft, s.RangeFrontRight, s.RangeRear, s.Level)
	})
	readToken.Wait()
	if readToken.Error() != nil {
		return readToken.Error()
	}
	logger.WithField("topic", cfg.TopicReadings).Info("subscribed")

	evToken := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e readings.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			logger.WithError(err).Warn("event unmarshal error")
			return
		}
		fmt.Printf("[EVNT] source=%d code=%d %s\n", e.Source, e.Code, e.Name)
	})
	evToken.Wait()
	if evToken.Error() != nil {
		return evToken.Error()
	}
	logger.WithField("topic", cfg.TopicEvents).Info("subscribed")

	crsToken := client.Subscribe(cfg.TopicCourse, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var c gps.CourseCheck
		if err := json.Unmarshal(msg.Payload(), &c); err != nil {
			logger.WithError(err).Warn("course unmarshal error")
			return
		}
		fmt.Printf("[CRS ] course=%.1f° heading=%d° delta=%.1f° speed=%.1fkn validity=%s\n",
			c.CourseDeg, c.HeadingDeg, c.DeltaDeg, c.SpeedKnots, c.Validity)
	})
	crsToken.Wait()
	if crsToken.Error() != nil {
		return crsToken.Error()
	}

	<-ctx.Done()
	logger.Info("console shutting down")
	return nil
}
