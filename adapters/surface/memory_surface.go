package surface

import (
	"context"
	"sync"

	"github.com/rockfridrich/villa/ports"
)

// MemorySurface is an in-process surface for embedding and tests:
// envelopes are delivered with Deliver instead of over a transport.
type MemorySurface struct {
	origin   string
	target   string
	messages chan ports.Envelope

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// MemoryOpener implements the SurfaceOpener interface in-process
type MemoryOpener struct {
	// Origin reported by opened surfaces
	Origin string

	mu      sync.Mutex
	current *MemorySurface
}

// Open creates a new in-process surface
func (o *MemoryOpener) Open(ctx context.Context) (ports.Surface, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := &MemorySurface{
		origin:   o.Origin,
		messages: make(chan ports.Envelope, 8),
	}
	o.current = s
	return s, nil
}

// Current returns the most recently opened surface
func (o *MemoryOpener) Current() *MemorySurface {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Origin is the origin embedded into the remote URL
func (s *MemorySurface) Origin() string {
	return s.origin
}

// Navigate records the remote URL
func (s *MemorySurface) Navigate(target string) error {
	s.target = target
	return nil
}

// Target returns the remote URL set by Navigate
func (s *MemorySurface) Target() string {
	return s.target
}

// Messages delivers raw inbound envelopes
func (s *MemorySurface) Messages() <-chan ports.Envelope {
	return s.messages
}

// Deliver injects an inbound envelope. Messages delivered after Close
// are dropped.
func (s *MemorySurface) Deliver(origin string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.messages <- ports.Envelope{Origin: origin, Data: data}:
	default:
	}
}

// Close tears the surface down. Idempotent.
func (s *MemorySurface) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		close(s.messages)
	})
	return nil
}
