// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package regcodec decodes fixed-width little-endian register fields from
// raw device read buffers.
package regcodec

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a requested field does not fit inside the
// buffer. Channel offsets are static configuration, so hitting this in a
// deployed build means the channel table and the device disagree.
var ErrOutOfRange = errors.New("regcodec: field exceeds buffer bounds")

// DecodeUint reads width bytes at offset, little-endian, unsigned.
// Width must be 1..4.
func DecodeUint(buf []byte, offset, width int) (uint32, error) {
	if width < 1 || width > 4 {
		return 0, fmt.Errorf("regcodec: unsupported width %d", width)
	}
	if offset < 0 || offset+width > len(buf) {
		return 0, fmt.Errorf("%w: offset %d width %d in %d-byte buffer",
			ErrOutOfRange, offset, width, len(buf))
	}
	var v uint32
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[offset+i])
	}
	return v, nil
}

// DecodeInt reads width bytes at offset, little-endian, two's-complement.
func DecodeInt(buf []byte, offset, width int) (int32, error) {
	v, err := DecodeUint(buf, offset, width)
	if err != nil {
		return 0, err
	}
	shift := uint(32 - 8*width)
	return int32(v<<shift) >> shift, nil
}
