package events

import (
	"context"
	"testing"
	"time"
)

func Test_PublishReachesHandler(t *testing.T) {
	b := New()
	got := make(chan struct{}, 1)

	b.On(7, ObjectDetected, func() { got <- struct{}{} })
	b.Publish(7, ObjectDetected)

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

func Test_PublishKeyedBySourceAndCode(t *testing.T) {
	b := New()
	got := make(chan Code, 4)

	b.On(1, ObjectNear, func() { got <- ObjectNear })
	b.On(1, ObjectDetected, func() { got <- ObjectDetected })

	// different source, same code: must not fire
	b.Publish(2, ObjectNear)
	// same source, unsubscribed code: must not fire
	b.Publish(1, ObjectNearLeft)
	b.Publish(1, ObjectDetected)

	select {
	case c := <-got:
		if c != ObjectDetected {
			t.Fatalf("wrong event delivered: %d", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected ObjectDetected")
	}

	select {
	case c := <-got:
		t.Fatalf("unexpected extra event: %d", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func Test_WaitUnblocksOnEvent(t *testing.T) {
	b := New()
	done := make(chan error, 1)

	go func() {
		done <- b.Wait(context.Background(), 3, ObjectNearRight)
	}()

	// Give the waiter time to register.
	time.Sleep(20 * time.Millisecond)
	b.Publish(3, ObjectNearRight)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait never unblocked")
	}
}

func Test_WaitHonorsContext(t *testing.T) {
	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := b.Wait(ctx, 3, ObjectNear); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func Test_EventCodesAreWireConstants(t *testing.T) {
	// Renumbering breaks deployed consumers.
	if ObjectNear != 2 || ObjectNearLeft != 4 || ObjectNearRight != 5 || ObjectDetected != 10 {
		t.Fatal("event code constants changed")
	}
}
