// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package readings defines the JSON payloads published over MQTT.
package readings

// Snapshot is one full poll of a navigation sensor.
type Snapshot struct {
	Source  uint32 `json:"source"`  // driver source id
	Variant string `json:"variant"` // "compass" or "dual_lidar"

	// Angle channels, degrees. Only populated by the compass variant.
	Heading int `json:"heading,omitempty"`
	Pitch   int `json:"pitch,omitempty"`
	Roll    int `json:"roll,omitempty"`

	// Range channels, millimeters.
	RangeFrontLeft  int `json:"range_front_left,omitempty"`
	RangeFrontRight int `json:"range_front_right,omitempty"`
	RangeRear       int `json:"range_rear,omitempty"`
	RangeLeftSide   int `json:"range_left_side,omitempty"`
	RangeRightSide  int `json:"range_right_side,omitempty"`

	Primary int    `json:"primary"` // the polled primary channel value
	Level   string `json:"level"`   // proximity level after this poll
	Info    string `json:"info"`    // human readout, "N.C." when absent

	Time string `json:"time"` // RFC3339
}

// Event mirrors one raised event code onto MQTT for external consumers.
type Event struct {
	Source uint32 `json:"source"`
	Code   uint16 `json:"code"`
	Name   string `json:"name"`
	Time   string `json:"time"`
}
