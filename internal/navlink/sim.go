// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package navlink

import (
	"encoding/binary"
	"math"
	"time"
)

// Device modes. Opaque to the transport; the driver's channel table binds
// channels to them. Exactly one mode is active on the device at a time.
const (
	// ModeHeading exposes heading, pitch and roll as LE16 at offsets 0/2/4.
	ModeHeading byte = 0x00
	// ModeRange exposes the five range channels as LE16 at offsets 0..8.
	ModeRange byte = 0x01
)

// Sim emulates the peripheral so every binary runs without hardware. Heading
// sweeps at 30°/s, pitch and roll oscillate, ranges wobble around fixed
// distances. The mode register behaves like the real device: a read returns
// the buffer of whichever mode was selected last.
type Sim struct {
	start     time.Time
	mode      byte
	connected bool

	// Fixed range overrides in mm, applied when non-zero. Tests and demos use
	// these to stage obstacles.
	FrontLeft, FrontRight, Rear, LeftSide, RightSide uint16
}

// NewSim creates a connected simulated device in the heading mode.
func NewSim() *Sim {
	return &Sim{start: time.Now(), mode: ModeHeading, connected: true}
}

func (s *Sim) SetMode(mode byte) error {
	if !s.connected {
		return ErrNotConnected
	}
	s.mode = mode
	return nil
}

func (s *Sim) ReadRegisters(offset, count byte) ([]byte, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	elapsed := time.Since(s.start).Seconds()
	var window [10]byte

	switch s.mode {
	case ModeHeading:
		heading := uint16(math.Mod(elapsed*30, 360))
		pitch := int16(15 * math.Cos(elapsed*0.7))
		roll := int16(20 * math.Sin(elapsed))
		binary.LittleEndian.PutUint16(window[0:], heading)
		binary.LittleEndian.PutUint16(window[2:], uint16(pitch))
		binary.LittleEndian.PutUint16(window[4:], uint16(roll))
	case ModeRange:
		wobble := func(base float64, phase float64) uint16 {
			return uint16(base + 40*math.Sin(elapsed*0.9+phase))
		}
		ranges := [5]uint16{
			wobble(800, 0), wobble(820, 1), wobble(1500, 2),
			wobble(600, 3), wobble(650, 4),
		}
		for i, override := range [5]uint16{s.FrontLeft, s.FrontRight, s.Rear, s.LeftSide, s.RightSide} {
			if override != 0 {
				ranges[i] = override
			}
			binary.LittleEndian.PutUint16(window[2*i:], ranges[i])
		}
	}

	end := int(offset) + int(count)
	if end > len(window) {
		end = len(window)
	}
	buf := make([]byte, count)
	copy(buf, window[offset:end])
	return buf, nil
}

// Disconnect makes subsequent calls fail with ErrNotConnected, emulating an
// unplugged device.
func (s *Sim) Disconnect() { s.connected = false }

func (s *Sim) Connected() bool { return s.connected }

func (s *Sim) Close() error {
	s.connected = false
	return nil
}
