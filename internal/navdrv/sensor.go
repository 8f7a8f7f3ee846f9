// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package navdrv

import (
	"context"
	"fmt"

	"github.com/relabs-tech/navsense/internal/events"
	"github.com/relabs-tech/navsense/internal/navlink"
	"github.com/relabs-tech/navsense/internal/regcodec"
)

// Driver is what the polling scheduler sees: one primary value per poll, a
// human-readable status, and the per-poll update hook.
type Driver interface {
	// Query reads the primary channel. May block on a live mode switch.
	Query() (int, error)
	// Info renders the last known status; "N.C." while the device is absent.
	Info() string
	// Update runs once per poll cycle with the previous and current primary
	// value, refreshing threshold state and raising events.
	Update(prev, curr int)
}

// modeSelector suppresses redundant mode-switch traffic. Switching has
// device-side latency, so a read only pays for it when the requested mode
// differs from the one last selected.
type modeSelector struct {
	link     navlink.Transport
	current  byte
	selected bool
}

func (m *modeSelector) ensure(mode byte) error {
	if m.selected && m.current == mode {
		return nil
	}
	if err := m.link.SetMode(mode); err != nil {
		// Unknown device state; retry the switch on the next read.
		m.selected = false
		return err
	}
	m.current = mode
	m.selected = true
	return nil
}

// Config carries the per-instance driver settings. Zero thresholds select the
// variant defaults.
type Config struct {
	Variant Variant
	Source  events.SourceID

	// NearThreshold and FarThreshold bound the proximity detector of the
	// primary channel, in that channel's native unit.
	NearThreshold int
	FarThreshold  int

	// MovementThreshold is the minimum absolute delta between consecutive
	// primary values to count as movement.
	MovementThreshold int
}

// Variant defaults. Ranges run 0..2550 mm like the rest of the range-sensor
// family; heading is 0..359 degrees.
const (
	defaultNearRangeMM = 100
	defaultFarRangeMM  = 1500
	defaultNearHeading = 10
	defaultFarHeading  = 350
	defaultMovement    = 1

	maxRangeMM = 2550
	maxHeading = 359
)

// Sensor drives one physical unit: mode selection, register reads, threshold
// state and event raising. One poll context owns each Sensor; none of its
// methods are safe for concurrent use.
type Sensor struct {
	link    navlink.Transport
	bus     *events.Bus
	source  events.SourceID
	variant Variant

	mode      modeSelector
	proximity *ThresholdDetector
	// Side detectors, dual-lidar only.
	left, right *ThresholdDetector

	movementThreshold int
}

// NewSensor wires a driver onto an open transport and the shared event bus.
func NewSensor(link navlink.Transport, bus *events.Bus, cfg Config) (*Sensor, error) {
	near, far := cfg.NearThreshold, cfg.FarThreshold
	max := maxRangeMM
	if cfg.Variant == VariantCompass {
		max = maxHeading
		if near == 0 {
			near = defaultNearHeading
		}
		if far == 0 {
			far = defaultFarHeading
		}
	} else {
		if near == 0 {
			near = defaultNearRangeMM
		}
		if far == 0 {
			far = defaultFarRangeMM
		}
	}

	proximity, err := NewThresholdDetector(0, near, far, max)
	if err != nil {
		return nil, err
	}

	s := &Sensor{
		link:              link,
		bus:               bus,
		source:            cfg.Source,
		variant:           cfg.Variant,
		mode:              modeSelector{link: link},
		proximity:         proximity,
		movementThreshold: cfg.MovementThreshold,
	}
	if s.movementThreshold == 0 {
		s.movementThreshold = defaultMovement
	}

	if cfg.Variant == VariantDualLidar {
		if s.left, err = NewThresholdDetector(0, defaultNearRangeMM, defaultFarRangeMM, maxRangeMM); err != nil {
			return nil, err
		}
		if s.right, err = NewThresholdDetector(0, defaultNearRangeMM, defaultFarRangeMM, maxRangeMM); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SourceID is the event-dispatch identity of this driver.
func (s *Sensor) SourceID() events.SourceID { return s.source }

// Variant reports which device build this driver was configured for.
func (s *Sensor) Variant() Variant { return s.variant }

// read performs the full accessor pattern: ensure mode, read the mode's
// window, decode the channel's field. Always a live read; nothing is cached.
func (s *Sensor) read(ch Channel) (int, error) {
	f, ok := channelTable[ch]
	if !ok {
		return 0, fmt.Errorf("navdrv: unknown channel %d", int(ch))
	}
	if err := s.mode.ensure(f.mode); err != nil {
		return 0, fmt.Errorf("navdrv: %s: %w", ch, err)
	}
	buf, err := s.link.ReadRegisters(0, modeWindow[f.mode])
	if err != nil {
		return 0, fmt.Errorf("navdrv: %s: %w", ch, err)
	}
	if f.signed {
		v, err := regcodec.DecodeInt(buf, f.offset, f.width)
		return int(v), err
	}
	v, err := regcodec.DecodeUint(buf, f.offset, f.width)
	return int(v), err
}

// Range reads one of the range channels, in millimeters.
func (s *Sensor) Range(ch Channel) (int, error) {
	if channelTable[ch].mode != navlink.ModeRange {
		return 0, fmt.Errorf("navdrv: %s is not a range channel", ch)
	}
	return s.read(ch)
}

// Heading reads the compass heading in degrees [0, 360).
func (s *Sensor) Heading() (int, error) { return s.read(Heading) }

// Pitch reads the pitch angle in degrees [-90, 89].
func (s *Sensor) Pitch() (int, error) { return s.read(Pitch) }

// Roll reads the roll angle in degrees [-180, 179].
func (s *Sensor) Roll() (int, error) { return s.read(Roll) }

// Query reads the variant's primary channel.
func (s *Sensor) Query() (int, error) { return s.read(s.variant.Primary()) }

// Info renders the current primary value, or "N.C." while disconnected.
func (s *Sensor) Info() string {
	if !s.link.Connected() {
		return "N.C."
	}
	v, err := s.Query()
	if err != nil {
		return "N.C."
	}
	if s.variant == VariantCompass {
		return fmt.Sprintf("%d°", v)
	}
	return fmt.Sprintf("%d mm", v)
}

// Update is the per-poll hook. Event order is fixed: the primary proximity
// check, then movement detection, then the dual-lidar side checks. All
// proximity events fire on a level transition into Low only; staying below
// the threshold does not re-raise.
func (s *Sensor) Update(prev, curr int) {
	if level, changed := s.proximity.SetLevel(curr); changed && level == LevelLow {
		s.bus.Publish(s.source, events.ObjectNear)
	}

	delta := curr - prev
	if delta < 0 {
		delta = -delta
	}
	if delta > s.movementThreshold {
		s.bus.Publish(s.source, events.ObjectDetected)
	}

	if s.variant != VariantDualLidar {
		return
	}
	if v, err := s.Range(RangeRightSide); err == nil {
		if level, changed := s.right.SetLevel(v); changed && level == LevelLow {
			s.bus.Publish(s.source, events.ObjectNearRight)
		}
	}
	if v, err := s.Range(RangeLeftSide); err == nil {
		if level, changed := s.left.SetLevel(v); changed && level == LevelLow {
			s.bus.Publish(s.source, events.ObjectNearLeft)
		}
	}
}

// SetThreshold routes a symbolic condition to its backing setting: ObjectNear
// to the proximity low threshold, ObjectDetected to the movement threshold,
// and on the dual-lidar build ObjectNearLeft/ObjectNearRight to the side
// detectors. An unrecognized condition is a documented no-op.
func (s *Sensor) SetThreshold(cond events.Code, value int) error {
	switch cond {
	case events.ObjectNear:
		return s.proximity.SetLowThreshold(value)
	case events.ObjectDetected:
		if value < 0 {
			return fmt.Errorf("%w: movement threshold %d", ErrInvalidThreshold, value)
		}
		s.movementThreshold = value
		return nil
	case events.ObjectNearLeft:
		if s.left != nil {
			return s.left.SetLowThreshold(value)
		}
	case events.ObjectNearRight:
		if s.right != nil {
			return s.right.SetLowThreshold(value)
		}
	}
	return nil
}

// Threshold returns the value backing a condition, 0 for unrecognized ones.
func (s *Sensor) Threshold(cond events.Code) int {
	switch cond {
	case events.ObjectNear:
		return s.proximity.Threshold(LevelLow)
	case events.ObjectDetected:
		return s.movementThreshold
	case events.ObjectNearLeft:
		if s.left != nil {
			return s.left.Threshold(LevelLow)
		}
	case events.ObjectNearRight:
		if s.right != nil {
			return s.right.Threshold(LevelLow)
		}
	}
	return 0
}

// Level reports the proximity detector's current level.
func (s *Sensor) Level() Level { return s.proximity.Level() }

// OnEvent registers handler for one of this driver's event codes.
func (s *Sensor) OnEvent(code events.Code, handler func()) {
	s.bus.On(s.source, code, handler)
}

// PauseUntil blocks until this driver raises code at least once. ctx is the
// caller's cancellation wrapper.
func (s *Sensor) PauseUntil(ctx context.Context, code events.Code) error {
	return s.bus.Wait(ctx, s.source, code)
}
