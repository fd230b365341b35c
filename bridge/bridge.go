package bridge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"

	"github.com/rockfridrich/villa/core"
	"github.com/rockfridrich/villa/internal/eth"
	"github.com/rockfridrich/villa/ports"
)

// DefaultServiceURL is the well-known authentication service endpoint
const DefaultServiceURL = "https://auth.villa.cx"

// DefaultTimeout is the handshake ceiling
const DefaultTimeout = 5 * time.Minute

// Config is the per-call sign-in configuration
type Config struct {
	AppID   string       // Identifier of the registered application
	Network core.Network // Target network tag
}

// Validate checks the config before any asynchronous work starts
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("%w: app id is required", core.ErrInvalidConfig)
	}
	if !core.ValidNetwork(c.Network) {
		return fmt.Errorf("%w: %q", core.ErrUnknownNetwork, c.Network)
	}
	return nil
}

// Options tunes a Bridge beyond its required collaborators
type Options struct {
	// ServiceURL overrides DefaultServiceURL
	ServiceURL string

	// TrustedOrigins is the exact-match allow-list for inbound message
	// origins. Defaults to the service URL's origin.
	TrustedOrigins []string

	// Timeout overrides DefaultTimeout
	Timeout time.Duration

	// Tokenizer, when set, issues a session token on success
	Tokenizer ports.Tokenizer

	// Events, when set, receives sign-in/sign-out notifications
	Events ports.EventPublisher

	Logger watermill.LoggerAdapter
}

// Bridge mediates the handshake between a host application and the
// remote authentication service. Every SignIn resolves exactly once.
type Bridge struct {
	surfaces ports.SurfaceOpener
	store    ports.IdentityStore

	tokenizer ports.Tokenizer
	events    ports.EventPublisher
	logger    watermill.LoggerAdapter

	serviceURL     string
	trustedOrigins []string
	timeout        time.Duration

	inFlight atomic.Bool
}

// New creates a new auth bridge
func New(surfaces ports.SurfaceOpener, store ports.IdentityStore, opts Options) *Bridge {
	serviceURL := opts.ServiceURL
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}

	trusted := opts.TrustedOrigins
	if len(trusted) == 0 {
		if u, err := url.Parse(serviceURL); err == nil {
			trusted = []string{u.Scheme + "://" + u.Host}
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	return &Bridge{
		surfaces:       surfaces,
		store:          store,
		tokenizer:      opts.Tokenizer,
		events:         opts.Events,
		logger:         logger,
		serviceURL:     serviceURL,
		trustedOrigins: trusted,
		timeout:        timeout,
	}
}

// SignIn runs one authentication handshake. Expected outcomes (success,
// remote failure, cancel, timeout) are reported in the Result; the error
// return is reserved for caller misuse and infrastructure faults.
func (b *Bridge) SignIn(ctx context.Context, cfg Config) (core.Result, error) {
	if err := cfg.Validate(); err != nil {
		return core.Result{}, err
	}

	// Single-flight: a second concurrent call fails fast instead of
	// racing two surfaces against one identity store.
	if !b.inFlight.CompareAndSwap(false, true) {
		return core.Result{}, core.ErrSignInInFlight
	}
	defer b.inFlight.Store(false)

	session := core.AuthSession{
		RequestID: uuid.New().String(),
		State:     core.StateAwaiting,
		StartedAt: time.Now(),
	}

	// The surface (and with it the message listener) exists before the
	// remote URL is handed out, so an early response cannot be lost.
	surface, err := b.surfaces.Open(ctx)
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to open surface: %w", err)
	}

	timer := time.NewTimer(b.timeout)

	// Teardown is the single chokepoint for resource release, shared by
	// the message, timeout and cancellation paths.
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			timer.Stop()
			if err := surface.Close(); err != nil {
				b.logger.Error("failed to close surface", err, nil)
			}
		})
	}
	defer teardown()

	target, err := b.targetURL(cfg, surface.Origin(), session.RequestID)
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to build service URL: %w", err)
	}

	if err := surface.Navigate(target); err != nil {
		return core.Result{}, fmt.Errorf("failed to present service: %w", err)
	}

	for {
		select {
		case env, ok := <-surface.Messages():
			if !ok {
				return core.Failed(core.FailureCancelled, "authentication surface closed"), nil
			}
			if !b.trustedOrigin(env.Origin) {
				b.logger.Debug("dropping message from untrusted origin", watermill.LogFields{
					"origin": env.Origin,
				})
				continue
			}

			msg, ok := classify(env.Data)
			if !ok {
				continue
			}

			switch msg.kind {
			case kindSuccess:
				if msg.identity == nil || !eth.ValidAddress(msg.identity.Address) {
					// A success message is only acted on when it
					// carries a usable identity.
					b.logger.Error("success message without identity", nil, watermill.LogFields{
						"request_id": session.RequestID,
					})
					continue
				}
				return b.resolveSuccess(ctx, msg.identity, session.RequestID)

			case kindError:
				return core.Failed(failureForCode(msg.code), msg.message), nil

			case kindCancel:
				return core.Failed(core.FailureCancelled, "user dismissed authentication"), nil
			}

		case <-timer.C:
			return core.Failed(core.FailureTimeout, "no response from authentication service"), nil

		case <-ctx.Done():
			return core.Failed(core.FailureCancelled, ctx.Err().Error()), nil
		}
	}
}

// SignOut clears the persisted identity. Calling it when no identity is
// stored is a no-op.
func (b *Bridge) SignOut(ctx context.Context) error {
	identity, err := b.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read identity: %w", err)
	}

	if err := b.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}

	if identity != nil && b.events != nil {
		if err := b.events.PublishSignOut(ctx, identity.Address); err != nil {
			// The store is already cleared, which is the part that
			// matters; the event is best effort.
			b.logger.Error("failed to publish sign-out event", err, nil)
		}
	}

	return nil
}

// CurrentIdentity returns the persisted identity, or nil if none
func (b *Bridge) CurrentIdentity(ctx context.Context) (*core.Identity, error) {
	return b.store.Get(ctx)
}

func (b *Bridge) resolveSuccess(ctx context.Context, identity *core.Identity, requestID string) (core.Result, error) {
	checksummed, err := eth.Checksum(identity.Address)
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to normalize address: %w", err)
	}
	identity.Address = checksummed

	if err := b.store.Set(ctx, identity); err != nil {
		return core.Result{}, fmt.Errorf("failed to persist identity: %w", err)
	}

	var token string
	if b.tokenizer != nil {
		token, err = b.tokenizer.IdentityToToken(identity)
		if err != nil {
			return core.Result{}, fmt.Errorf("failed to issue session token: %w", err)
		}
	}

	if b.events != nil {
		if err := b.events.PublishSignIn(ctx, identity.Address, requestID); err != nil {
			b.logger.Error("failed to publish sign-in event", err, nil)
		}
	}

	return core.Success(identity, token), nil
}

func (b *Bridge) targetURL(cfg Config, origin, requestID string) (string, error) {
	u, err := url.Parse(b.serviceURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("app_id", cfg.AppID)
	q.Set("network", string(cfg.Network))
	q.Set("origin", origin)
	q.Set("request_id", requestID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// trustedOrigin requires an exact match; no wildcard or prefix matching,
// since this is the sole barrier against an impersonated result.
func (b *Bridge) trustedOrigin(origin string) bool {
	for _, trusted := range b.trustedOrigins {
		if origin == trusted {
			return true
		}
	}
	return false
}
