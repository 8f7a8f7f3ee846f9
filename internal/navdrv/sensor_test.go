package navdrv

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/relabs-tech/navsense/internal/events"
	"github.com/relabs-tech/navsense/internal/navlink"
)

// fakeLink is an in-memory transport with per-mode register windows and a
// SetMode call counter.
type fakeLink struct {
	mode         byte
	setModeCalls int
	windows      map[byte][]byte
	connected    bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		windows: map[byte][]byte{
			navlink.ModeHeading: make([]byte, 6),
			navlink.ModeRange:   make([]byte, 10),
		},
		connected: true,
	}
}

func (f *fakeLink) SetMode(mode byte) error {
	if !f.connected {
		return navlink.ErrNotConnected
	}
	f.setModeCalls++
	f.mode = mode
	return nil
}

func (f *fakeLink) ReadRegisters(offset, count byte) ([]byte, error) {
	if !f.connected {
		return nil, navlink.ErrNotConnected
	}
	w := f.windows[f.mode]
	buf := make([]byte, count)
	copy(buf, w[offset:])
	return buf, nil
}

func (f *fakeLink) Connected() bool { return f.connected }
func (f *fakeLink) Close() error    { f.connected = false; return nil }

func (f *fakeLink) setRange(ch Channel, mm uint16) {
	binary.LittleEndian.PutUint16(f.windows[navlink.ModeRange][channelTable[ch].offset:], mm)
}

func (f *fakeLink) setHeading(deg uint16, pitch, roll int16) {
	w := f.windows[navlink.ModeHeading]
	binary.LittleEndian.PutUint16(w[0:], deg)
	binary.LittleEndian.PutUint16(w[2:], uint16(pitch))
	binary.LittleEndian.PutUint16(w[4:], uint16(roll))
}

var _ Driver = (*Sensor)(nil)

// collect subscribes to the given codes and returns the set observed within
// the window. Event order across codes is not guaranteed, so membership is
// what gets asserted.
func collect(t *testing.T, s *Sensor, codes ...events.Code) func() map[events.Code]bool {
	t.Helper()
	ch := make(chan events.Code, 16)
	for _, code := range codes {
		code := code
		s.OnEvent(code, func() { ch <- code })
	}
	return func() map[events.Code]bool {
		got := map[events.Code]bool{}
		for {
			select {
			case c := <-ch:
				got[c] = true
			case <-time.After(150 * time.Millisecond):
				return got
			}
		}
	}
}

func newTestSensor(t *testing.T, link navlink.Transport, v Variant) *Sensor {
	t.Helper()
	s, err := NewSensor(link, events.New(), Config{Variant: v, Source: 1})
	if err != nil {
		t.Fatalf("sensor: %v", err)
	}
	return s
}

func Test_ModeSwitchSuppression(t *testing.T) {
	link := newFakeLink()
	s := newTestSensor(t, link, VariantCompass)

	if _, err := s.Heading(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Heading(); err != nil {
		t.Fatal(err)
	}
	if link.setModeCalls != 1 {
		t.Fatalf("repeated reads of one mode issued %d switches", link.setModeCalls)
	}

	if _, err := s.Range(RangeRear); err != nil {
		t.Fatal(err)
	}
	if link.setModeCalls != 2 {
		t.Fatalf("cross-mode read issued %d switches, want 2", link.setModeCalls)
	}
	if link.mode != navlink.ModeRange {
		t.Fatalf("active mode 0x%02X, want range mode", link.mode)
	}

	if _, err := s.Pitch(); err != nil {
		t.Fatal(err)
	}
	if link.setModeCalls != 3 {
		t.Fatalf("switching back issued %d switches, want 3", link.setModeCalls)
	}
}

func Test_ChannelDecoding(t *testing.T) {
	link := newFakeLink()
	copy(link.windows[navlink.ModeRange], []byte{0x64, 0x00, 0x2C, 0x01})
	link.setHeading(347, -12, -90)

	s := newTestSensor(t, link, VariantCompass)

	if v, err := s.Range(RangeFrontLeft); err != nil || v != 100 {
		t.Fatalf("front-left = %d, %v", v, err)
	}
	if v, err := s.Range(RangeFrontRight); err != nil || v != 300 {
		t.Fatalf("front-right = %d, %v", v, err)
	}
	if v, err := s.Heading(); err != nil || v != 347 {
		t.Fatalf("heading = %d, %v", v, err)
	}
	if v, err := s.Pitch(); err != nil || v != -12 {
		t.Fatalf("pitch = %d, %v", v, err)
	}
	if v, err := s.Roll(); err != nil || v != -90 {
		t.Fatalf("roll = %d, %v", v, err)
	}

	if _, err := s.Range(Heading); err == nil {
		t.Fatal("heading accepted as a range channel")
	}
}

func Test_MovementDetection(t *testing.T) {
	link := newFakeLink()
	s := newTestSensor(t, link, VariantCompass)

	drain := collect(t, s, events.ObjectDetected)
	s.Update(10, 12)
	if got := drain(); !got[events.ObjectDetected] {
		t.Fatal("delta 2 with threshold 1 must raise ObjectDetected")
	}

	drain = collect(t, s, events.ObjectDetected)
	s.Update(10, 10)
	if got := drain(); got[events.ObjectDetected] {
		t.Fatal("zero delta raised ObjectDetected")
	}

	// delta equal to the threshold does not count as movement
	drain = collect(t, s, events.ObjectDetected)
	s.Update(10, 11)
	if got := drain(); got[events.ObjectDetected] {
		t.Fatal("delta == threshold raised ObjectDetected")
	}
}

func Test_ObjectNearFiresOnTransitionOnly(t *testing.T) {
	link := newFakeLink()
	s := newTestSensor(t, link, VariantDualLidar)
	link.setRange(RangeLeftSide, 2000)
	link.setRange(RangeRightSide, 2000)

	drain := collect(t, s, events.ObjectNear)
	s.Update(600, 50) // Normal -> Low
	if got := drain(); !got[events.ObjectNear] {
		t.Fatal("transition into Low must raise ObjectNear")
	}

	drain = collect(t, s, events.ObjectNear)
	s.Update(50, 40) // still Low
	if got := drain(); got[events.ObjectNear] {
		t.Fatal("staying Low re-raised ObjectNear")
	}

	drain = collect(t, s, events.ObjectNear)
	s.Update(40, 800) // Low -> Normal
	s.Update(800, 60) // Normal -> Low again
	if got := drain(); !got[events.ObjectNear] {
		t.Fatal("second transition into Low must raise ObjectNear again")
	}
}

func Test_DualLidarSideEvents(t *testing.T) {
	link := newFakeLink()
	link.setRange(RangeLeftSide, 50)
	link.setRange(RangeRightSide, 2000)

	s := newTestSensor(t, link, VariantDualLidar)
	drain := collect(t, s, events.ObjectNearLeft, events.ObjectNearRight)

	s.Update(600, 600)
	got := drain()
	if !got[events.ObjectNearLeft] {
		t.Fatal("left range 50mm below 100mm threshold must raise ObjectNearLeft")
	}
	if got[events.ObjectNearRight] {
		t.Fatal("right range 2000mm raised ObjectNearRight")
	}
}

func Test_DualLidarSideChecksAugmentPrimary(t *testing.T) {
	link := newFakeLink()
	link.setRange(RangeLeftSide, 50)
	link.setRange(RangeRightSide, 2000)

	s := newTestSensor(t, link, VariantDualLidar)
	drain := collect(t, s, events.ObjectNear, events.ObjectDetected, events.ObjectNearLeft)

	// Primary (left side) fell from 600 to 50: proximity Low transition,
	// movement, and the independent left side check all fire.
	s.Update(600, 50)
	got := drain()
	for _, code := range []events.Code{events.ObjectNear, events.ObjectDetected, events.ObjectNearLeft} {
		if !got[code] {
			t.Fatalf("missing event %d in %v", code, got)
		}
	}
}

func Test_ThresholdConditionRouting(t *testing.T) {
	link := newFakeLink()
	s := newTestSensor(t, link, VariantDualLidar)

	if got := s.Threshold(events.ObjectNear); got != 100 {
		t.Fatalf("default near threshold = %d", got)
	}
	if got := s.Threshold(events.ObjectDetected); got != 1 {
		t.Fatalf("default movement threshold = %d", got)
	}

	if err := s.SetThreshold(events.ObjectNear, 250); err != nil {
		t.Fatal(err)
	}
	if err := s.SetThreshold(events.ObjectDetected, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.SetThreshold(events.ObjectNearLeft, 80); err != nil {
		t.Fatal(err)
	}

	if got := s.Threshold(events.ObjectNear); got != 250 {
		t.Fatalf("near threshold = %d, want 250", got)
	}
	if got := s.Threshold(events.ObjectDetected); got != 5 {
		t.Fatalf("movement threshold = %d, want 5", got)
	}
	if got := s.Threshold(events.ObjectNearLeft); got != 80 {
		t.Fatalf("left threshold = %d, want 80", got)
	}

	// repeated reads without intervening writes are stable
	for i := 0; i < 3; i++ {
		if got := s.Threshold(events.ObjectNear); got != 250 {
			t.Fatalf("threshold read %d drifted: %d", i, got)
		}
	}

	// unrecognized condition: no-op set, zero get
	const bogus events.Code = 99
	if err := s.SetThreshold(bogus, 123); err != nil {
		t.Fatalf("unknown condition must be a no-op, got %v", err)
	}
	if got := s.Threshold(bogus); got != 0 {
		t.Fatalf("unknown condition = %d, want 0", got)
	}
}

func Test_InfoReadout(t *testing.T) {
	link := newFakeLink()
	link.setHeading(120, 0, 0)
	s := newTestSensor(t, link, VariantCompass)

	if got := s.Info(); got != "120°" {
		t.Fatalf("info = %q", got)
	}

	link.connected = false
	if got := s.Info(); got != "N.C." {
		t.Fatalf("disconnected info = %q, want N.C.", got)
	}
}

func Test_QueryPrimaryChannel(t *testing.T) {
	link := newFakeLink()
	link.setHeading(77, 0, 0)
	link.setRange(RangeLeftSide, 432)

	compass := newTestSensor(t, link, VariantCompass)
	if v, err := compass.Query(); err != nil || v != 77 {
		t.Fatalf("compass primary = %d, %v", v, err)
	}

	lidar := newTestSensor(t, link, VariantDualLidar)
	if v, err := lidar.Query(); err != nil || v != 432 {
		t.Fatalf("dual-lidar primary = %d, %v", v, err)
	}
}

func Test_ModeRetriedAfterTransportError(t *testing.T) {
	link := newFakeLink()
	s := newTestSensor(t, link, VariantCompass)

	link.connected = false
	if _, err := s.Heading(); err == nil {
		t.Fatal("read on dead link succeeded")
	}

	link.connected = true
	if _, err := s.Heading(); err != nil {
		t.Fatalf("read after reconnect: %v", err)
	}
	// the failed attempt must not have been counted as a selected mode
	if link.setModeCalls != 1 {
		t.Fatalf("setModeCalls = %d, want 1", link.setModeCalls)
	}
}
