// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package navdrv implements the host-side driver for the multiplexed
// navigation peripheral: mode-aware register reads, per-channel threshold
// detection and event raising.
package navdrv

import "github.com/relabs-tech/navsense/internal/navlink"

// Channel is one physical quantity the device can report.
type Channel int

const (
	RangeFrontLeft Channel = iota
	RangeFrontRight
	RangeRear
	RangeLeftSide
	RangeRightSide
	Heading
	Pitch
	Roll
)

func (c Channel) String() string {
	switch c {
	case RangeFrontLeft:
		return "range_front_left"
	case RangeFrontRight:
		return "range_front_right"
	case RangeRear:
		return "range_rear"
	case RangeLeftSide:
		return "range_left_side"
	case RangeRightSide:
		return "range_right_side"
	case Heading:
		return "heading"
	case Pitch:
		return "pitch"
	case Roll:
		return "roll"
	}
	return "unknown"
}

// field binds a channel to its device mode and its position in that mode's
// read window. Static configuration; a channel only decodes correctly while
// its mode is the one last selected.
type field struct {
	mode   byte
	offset int
	width  int
	signed bool
}

// All angle channels are width-2. Heading is unsigned 0..359; pitch and roll
// are signed. Ranges are unsigned millimeters.
var channelTable = map[Channel]field{
	Heading: {mode: navlink.ModeHeading, offset: 0, width: 2, signed: false},
	Pitch:   {mode: navlink.ModeHeading, offset: 2, width: 2, signed: true},
	Roll:    {mode: navlink.ModeHeading, offset: 4, width: 2, signed: true},

	RangeFrontLeft:  {mode: navlink.ModeRange, offset: 0, width: 2, signed: false},
	RangeFrontRight: {mode: navlink.ModeRange, offset: 2, width: 2, signed: false},
	RangeRear:       {mode: navlink.ModeRange, offset: 4, width: 2, signed: false},
	RangeLeftSide:   {mode: navlink.ModeRange, offset: 6, width: 2, signed: false},
	RangeRightSide:  {mode: navlink.ModeRange, offset: 8, width: 2, signed: false},
}

// modeWindow gives the size of the read window each mode exposes.
var modeWindow = map[byte]byte{
	navlink.ModeHeading: 6,
	navlink.ModeRange:   10,
}

// Variant selects which of the two device builds the driver talks to.
type Variant int

const (
	// VariantCompass is the range-finder + tilt-compensated compass unit.
	// Its primary polled channel is Heading.
	VariantCompass Variant = iota
	// VariantDualLidar is the dual side-facing lidar unit. Its primary
	// polled channel is the left side range; left and right side ranges
	// additionally carry their own proximity detectors.
	VariantDualLidar
)

// Primary is the channel the polling scheduler feeds into Update.
func (v Variant) Primary() Channel {
	if v == VariantDualLidar {
		return RangeLeftSide
	}
	return Heading
}

func (v Variant) String() string {
	if v == VariantDualLidar {
		return "dual_lidar"
	}
	return "compass"
}
