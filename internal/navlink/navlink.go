// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package navlink carries the register-oriented link to the navigation
// peripheral. The device multiplexes its channels behind a mode register:
// the host selects a mode, then reads a small buffer whose layout depends on
// the mode last selected. Retries and backoff, if any, live below this layer.
package navlink

import "errors"

// ErrNotConnected is returned while the device is not reachable on the link.
// Callers surface it as the "N.C." readout rather than treating it as fatal.
var ErrNotConnected = errors.New("navlink: device not connected")

// Transport is one register-oriented link to a single device. Implementations
// are not safe for concurrent use; one poll context owns each transport.
type Transport interface {
	// ReadRegisters reads count bytes starting at offset from the register
	// window of the currently selected mode. Blocking.
	ReadRegisters(offset, count byte) ([]byte, error)

	// SetMode selects the device mode for subsequent reads. Fire-and-forget:
	// an error means the command could not be sent, not that the device
	// rejected it.
	SetMode(mode byte) error

	// Connected reports whether the device is currently reachable.
	Connected() bool

	Close() error
}
