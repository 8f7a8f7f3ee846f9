// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package navlink

import (
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// UART wire format. Commands are 4 bytes:
//
//	[0xA5, op, arg0, arg1]
//
// A read reply is [0x5A, count, payload..., xor] where xor covers the payload.
const (
	cmdSOF  byte = 0xA5
	respSOF byte = 0x5A

	opSetMode byte = 0x01
	opRead    byte = 0x02
)

// SerialTransport drives the peripheral over a UART link.
type SerialTransport struct {
	port      io.ReadWriteCloser
	connected bool
}

// OpenSerial opens the UART link on the named port.
// Typical ports: /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0.
func OpenSerial(portName string, baudRate uint) (*SerialTransport, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("navlink: open %s: %w", portName, err)
	}
	return &SerialTransport{port: port, connected: true}, nil
}

// SetMode sends the mode-switch command. No reply is expected.
func (t *SerialTransport) SetMode(mode byte) error {
	if !t.connected {
		return ErrNotConnected
	}
	if _, err := t.port.Write([]byte{cmdSOF, opSetMode, mode, 0}); err != nil {
		t.connected = false
		return fmt.Errorf("navlink: set mode 0x%02X: %w", mode, err)
	}
	return nil
}

// ReadRegisters requests count bytes at offset and blocks for the reply.
func (t *SerialTransport) ReadRegisters(offset, count byte) ([]byte, error) {
	if !t.connected {
		return nil, ErrNotConnected
	}
	if _, err := t.port.Write([]byte{cmdSOF, opRead, offset, count}); err != nil {
		t.connected = false
		return nil, fmt.Errorf("navlink: read request: %w", err)
	}

	header := make([]byte, 2)
	if _, err := io.ReadFull(t.port, header); err != nil {
		t.connected = false
		return nil, fmt.Errorf("navlink: read reply header: %w", err)
	}
	if header[0] != respSOF {
		return nil, fmt.Errorf("navlink: bad reply marker 0x%02X", header[0])
	}
	if header[1] != count {
		return nil, fmt.Errorf("navlink: reply length %d, requested %d", header[1], count)
	}

	payload := make([]byte, int(count)+1)
	if _, err := io.ReadFull(t.port, payload); err != nil {
		t.connected = false
		return nil, fmt.Errorf("navlink: read reply payload: %w", err)
	}

	var sum byte
	for _, b := range payload[:count] {
		sum ^= b
	}
	if sum != payload[count] {
		return nil, fmt.Errorf("navlink: checksum mismatch (got 0x%02X, want 0x%02X)",
			payload[count], sum)
	}
	return payload[:count], nil
}

// Connected reports whether the link has seen no I/O failure since open.
func (t *SerialTransport) Connected() bool { return t.connected }

func (t *SerialTransport) Close() error {
	t.connected = false
	return t.port.Close()
}
