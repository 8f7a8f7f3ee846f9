// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package events provides the process-wide dispatch for sensor event codes.
// Producers raise (source id, event code) pairs; consumers subscribe or block
// on the same pair. The codes are protocol constants shared with existing
// consumers and must not be renumbered.
package events

import (
	"context"
	"sync"
)

// SourceID identifies one driver instance, stable for the process lifetime.
type SourceID uint32

// Code is a numeric event code raised by a driver.
type Code uint16

// Wire-compatible event codes.
const (
	ObjectNear      Code = 2 // equals the Low threshold level code
	ObjectNearLeft  Code = 4
	ObjectNearRight Code = 5
	ObjectDetected  Code = 10
)

type key struct {
	src  SourceID
	code Code
}

type subscriber struct {
	ch   chan struct{}
	once bool
}

// Bus fans events out to subscribers. Each On handler gets its own feed
// channel with a one-slot buffer; publications while the handler is busy are
// coalesced, never queued without bound. Safe for concurrent publishers and
// subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[key][]*subscriber
}

// New creates a ready-to-use Bus.
func New() *Bus {
	return &Bus{subs: make(map[key][]*subscriber)}
}

// On registers handler for (src, code). The handler runs on its own goroutine;
// invocations for one registration are sequential, but no ordering holds
// across different registrations.
func (b *Bus) On(src SourceID, code Code, handler func()) {
	sub := &subscriber{ch: make(chan struct{}, 1)}
	b.add(key{src, code}, sub)
	go func() {
		for range sub.ch {
			handler()
		}
	}()
}

// Publish raises (src, code). Delivery is best-effort and non-blocking: a
// subscriber that is still processing the previous event sees the new one
// coalesced into its pending slot.
func (b *Bus) Publish(src SourceID, code Code) {
	k := key{src, code}

	b.mu.Lock()
	subs := b.subs[k]
	delivered := subs[:0:0]
	var kept []*subscriber
	for _, sub := range subs {
		delivered = append(delivered, sub)
		if !sub.once {
			kept = append(kept, sub)
		}
	}
	if len(kept) != len(subs) {
		b.subs[k] = kept
	}
	b.mu.Unlock()

	for _, sub := range delivered {
		if sub.once {
			close(sub.ch)
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// Wait blocks until (src, code) fires at least once or ctx is cancelled.
// Cancellation is the caller's wrapper; the event itself has no timeout.
func (b *Bus) Wait(ctx context.Context, src SourceID, code Code) error {
	sub := &subscriber{ch: make(chan struct{}), once: true}
	b.add(key{src, code}, sub)

	select {
	case <-sub.ch:
		return nil
	case <-ctx.Done():
		b.remove(key{src, code}, sub)
		return ctx.Err()
	}
}

func (b *Bus) add(k key, sub *subscriber) {
	b.mu.Lock()
	b.subs[k] = append(b.subs[k], sub)
	b.mu.Unlock()
}

func (b *Bus) remove(k key, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[k]
	for i, s := range subs {
		if s == sub {
			subs[i] = subs[len(subs)-1]
			b.subs[k] = subs[:len(subs)-1]
			return
		}
	}
}
