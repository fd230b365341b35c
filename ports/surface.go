package ports

import "context"

// Envelope is a raw inbound message together with its transport-level
// origin. Content is untrusted until the bridge validates it.
type Envelope struct {
	Origin string
	Data   []byte
}

// Surface is the presentation surface for the remote authentication
// service: it exposes the origin the remote side should respond to,
// accepts the target URL to present, and delivers inbound envelopes.
type Surface interface {
	// Origin is the caller-side origin embedded into the remote URL
	Origin() string

	// Navigate points the surface at the remote authentication URL.
	// The surface must be ready to receive messages before this returns.
	Navigate(target string) error

	// Messages delivers raw inbound envelopes. The channel is closed
	// when the surface is closed.
	Messages() <-chan Envelope

	// Close tears the surface down. Idempotent.
	Close() error
}

// SurfaceOpener creates one presentation surface per handshake
type SurfaceOpener interface {
	Open(ctx context.Context) (Surface, error)
}
