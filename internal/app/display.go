// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/navsense/internal/config"
	"github.com/relabs-tech/navsense/internal/readings"
)

// RunDisplay shows the latest reading on an SSD1306 status display. The
// display is a passive MQTT consumer; with no snapshot yet, or a stale link,
// it shows the "N.C." readout.
func RunDisplay(ctx context.Context, logger *logrus.Logger) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("app: periph host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("app: i2c open: %w", err)
	}
	defer bus.Close()

	disp, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("app: display init: %w", err)
	}
	logger.Info("display initialized")

	var (
		mu       sync.RWMutex
		last     readings.Snapshot
		haveSnap bool
	)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s readings.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			return
		}
		mu.Lock()
		last = s
		haveSnap = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mu.RLock()
			snap, have := last, haveSnap
			mu.RUnlock()

			lines := []string{"navsense", "N.C."}
			if have {
				lines = renderLines(snap)
			}
			if err := drawLines(disp, lines); err != nil {
				logger.WithError(err).Warn("display draw error")
			}
		}
	}
}

func renderLines(s readings.Snapshot) []string {
	if s.Info == "N.C." {
		return []string{s.Variant, "N.C."}
	}
	if s.Variant == "compass" {
		return []string{
			fmt.Sprintf("HDG %3d deg", s.Heading),
			fmt.Sprintf("P %4d R %4d", s.Pitch, s.Roll),
			fmt.Sprintf("FL%4d FR%4d", s.RangeFrontLeft, s.RangeFrontRight),
			fmt.Sprintf("level %s", s.Level),
		}
	}
	return []string{
		fmt.Sprintf("L %4d mm", s.RangeLeftSide),
		fmt.Sprintf("R %4d mm", s.RangeRightSide),
		fmt.Sprintf("level %s", s.Level),
	}
}

func drawLines(disp *ssd1306.Dev, lines []string) error {
	img := image1bit.NewVerticalLSB(disp.Bounds())
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return disp.Draw(disp.Bounds(), img, image.Point{})
}
