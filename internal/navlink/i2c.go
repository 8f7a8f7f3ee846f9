// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package navlink

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2C register map. The mode register selects the channel group; the data
// window follows it and is re-populated by the firmware on every mode switch.
const (
	regMode       byte = 0x41
	regDataWindow byte = 0x42

	// DefaultI2CAddr is the factory address of the peripheral.
	DefaultI2CAddr uint16 = 0x11
)

// I2CTransport drives the peripheral over an I2C bus. Same register semantics
// as the UART link, without the command framing.
type I2CTransport struct {
	bus       i2c.BusCloser
	dev       i2c.Dev
	connected bool
}

// OpenI2C initializes the periph host, opens the named bus ("" selects the
// first available one) and probes the device address.
func OpenI2C(busName string, addr uint16) (*I2CTransport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("navlink: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("navlink: i2c open %q: %w", busName, err)
	}

	t := &I2CTransport{
		bus:       bus,
		dev:       i2c.Dev{Bus: bus, Addr: addr},
		connected: true,
	}

	// Probe: a zero-length write fails fast when nothing ACKs the address.
	if err := t.dev.Tx(nil, nil); err != nil {
		bus.Close()
		return nil, fmt.Errorf("navlink: no device at 0x%02X: %w", addr, err)
	}
	return t, nil
}

func (t *I2CTransport) SetMode(mode byte) error {
	if !t.connected {
		return ErrNotConnected
	}
	if err := t.dev.Tx([]byte{regMode, mode}, nil); err != nil {
		t.connected = false
		return fmt.Errorf("navlink: set mode 0x%02X: %w", mode, err)
	}
	return nil
}

func (t *I2CTransport) ReadRegisters(offset, count byte) ([]byte, error) {
	if !t.connected {
		return nil, ErrNotConnected
	}
	buf := make([]byte, count)
	if err := t.dev.Tx([]byte{regDataWindow + offset}, buf); err != nil {
		t.connected = false
		return nil, fmt.Errorf("navlink: read %d@%d: %w", count, offset, err)
	}
	return buf, nil
}

func (t *I2CTransport) Connected() bool { return t.connected }

func (t *I2CTransport) Close() error {
	t.connected = false
	return t.bus.Close()
}
