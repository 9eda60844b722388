package services

import (
	"sync"
	"time"

	"deskcast/internal/core/domain"
)

// FrameBridge hands frames from the capture goroutine to the delivery
// goroutine through a single slot where the latest frame wins. Publishing
// never blocks and never queues; a slow consumer only loses stale frames.
type FrameBridge struct {
	mu     sync.Mutex
	latest *domain.Frame
	notify chan struct{}
}

// NewFrameBridge creates an empty bridge.
func NewFrameBridge() *FrameBridge {
	return &FrameBridge{
		// Capacity one so a publish racing a consumer that has not yet
		// started waiting leaves the wakeup token behind.
		notify: make(chan struct{}, 1),
	}
}

// Publish overwrites the slot with the given frame and wakes the consumer.
func (b *FrameBridge) Publish(frame *domain.Frame) {
	b.mu.Lock()
	b.latest = frame
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// AwaitNext blocks until a frame is published or the timeout elapses, then
// returns the most recent frame. The second return is false only when nothing
// has ever been published.
func (b *FrameBridge) AwaitNext(timeout time.Duration) (*domain.Frame, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-b.notify:
	case <-timer.C:
	}

	b.mu.Lock()
	frame := b.latest
	b.mu.Unlock()
	return frame, frame != nil
}
