// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/navsense/internal/config"
	"github.com/relabs-tech/navsense/internal/navlink"
	"github.com/relabs-tech/navsense/internal/regcodec"
)

// RunRegisterDump switches through every device mode, reads the raw register
// window and prints it with the decoded fields. Bring-up tool; one pass.
func RunRegisterDump(logger *logrus.Logger) error {
	cfg := config.Get()

	link, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer link.Close()

	modes := []struct {
		mode   byte
		name   string
		window byte
		fields []struct {
			name   string
			offset int
			signed bool
		}
	}{
		{
			mode: navlink.ModeHeading, name: "heading", window: 6,
			fields: []struct {
				name   string
				offset int
				signed bool
			}{
				{"heading", 0, false},
				{"pitch", 2, true},
				{"roll", 4, true},
			},
		},
		{
			mode: navlink.ModeRange, name: "range", window: 10,
			fields: []struct {
				name   string
				offset int
				signed bool
			}{
				{"front_left", 0, false},
				{"front_right", 2, false},
				{"rear", 4, false},
				{"left_side", 6, false},
				{"right_side", 8, false},
			},
		},
	}

	for _, m := range modes {
		if err := link.SetMode(m.mode); err != nil {
			return fmt.Errorf("app: select mode %s: %w", m.name, err)
		}
		buf, err := link.ReadRegisters(0, m.window)
		if err != nil {
			return fmt.Errorf("app: read mode %s: %w", m.name, err)
		}

		fmt.Printf("mode 0x%02X (%s): % X\n", m.mode, m.name, buf)
		for _, f := range m.fields {
			if f.signed {
				v, err := regcodec.DecodeInt(buf, f.offset, 2)
				if err != nil {
					logger.WithError(err).Warnf("decode %s", f.name)
					continue
				}
				fmt.Printf("  %-12s %6d\n", f.name, v)
				continue
			}
			v, err := regcodec.DecodeUint(buf, f.offset, 2)
			if err != nil {
				logger.WithError(err).Warnf("decode %s", f.name)
				continue
			}
			fmt.Printf("  %-12s %6d\n", f.name, v)
		}
	}
	return nil
}
