// Package villa is the embedding surface for host applications: a
// passkey-based wallet identity behind a two-call contract. SignIn runs
// one handshake against the remote authentication service and resolves
// exactly once; SignOut clears the persisted identity.
package villa

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/rockfridrich/villa/adapters/store"
	"github.com/rockfridrich/villa/adapters/surface"
	"github.com/rockfridrich/villa/bridge"
	"github.com/rockfridrich/villa/core"
)

// Client represents the public interface for host applications
type Client interface {
	// SignIn runs one authentication handshake. Expected outcomes
	// (success, failure, cancel, timeout) are reported in the Result.
	SignIn(ctx context.Context, cfg bridge.Config) (core.Result, error)

	// SignOut clears the persisted identity. Idempotent.
	SignOut(ctx context.Context) error

	// CurrentIdentity returns the persisted identity, or nil if none
	CurrentIdentity(ctx context.Context) (*core.Identity, error)
}

// NewClient creates a client with a loopback callback surface and an
// in-memory identity store. Hosts that need durable identity persistence
// or a custom surface construct bridge.New directly.
func NewClient(opts bridge.Options) Client {
	logger := opts.Logger
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	opener := &surface.HTTPOpener{Logger: logger}
	return bridge.New(opener, store.NewMemoryIdentityStore(), opts)
}
