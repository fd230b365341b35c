package bridge_test

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockfridrich/villa/adapters/store"
	"github.com/rockfridrich/villa/adapters/surface"
	"github.com/rockfridrich/villa/bridge"
	"github.com/rockfridrich/villa/core"
)

const (
	trustedOrigin   = "https://auth.villa.cx"
	untrustedOrigin = "https://evil.example.com"
	callerOrigin    = "http://127.0.0.1:4173"

	testAddress     = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	testChecksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

type staticTokenizer struct{}

func (staticTokenizer) IdentityToToken(identity *core.Identity) (string, error) {
	return "token-for-" + identity.Address, nil
}

func (staticTokenizer) TokenToIdentity(token string) (*core.Identity, error) {
	return nil, core.ErrInvalidToken
}

type eventRecorder struct {
	mu       sync.Mutex
	signIns  []string
	signOuts []string
}

func (r *eventRecorder) PublishSignIn(ctx context.Context, address, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signIns = append(r.signIns, address)
	return nil
}

func (r *eventRecorder) PublishSignOut(ctx context.Context, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signOuts = append(r.signOuts, address)
	return nil
}

type outcome struct {
	result core.Result
	err    error
}

func newTestBridge(t *testing.T, opts bridge.Options) (*bridge.Bridge, *surface.MemoryOpener, *store.MemoryIdentityStore) {
	t.Helper()

	opener := &surface.MemoryOpener{Origin: callerOrigin}
	identities := store.NewMemoryIdentityStore().(*store.MemoryIdentityStore)

	if len(opts.TrustedOrigins) == 0 {
		opts.TrustedOrigins = []string{trustedOrigin}
	}

	return bridge.New(opener, identities, opts), opener, identities
}

func startSignIn(ctx context.Context, b *bridge.Bridge, cfg bridge.Config) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		result, err := b.SignIn(ctx, cfg)
		ch <- outcome{result: result, err: err}
	}()
	return ch
}

func waitForSurface(t *testing.T, opener *surface.MemoryOpener) *surface.MemorySurface {
	t.Helper()
	require.Eventually(t, func() bool {
		return opener.Current() != nil
	}, time.Second, time.Millisecond)
	return opener.Current()
}

func awaitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in did not resolve")
		return outcome{}
	}
}

func validConfig() bridge.Config {
	return bridge.Config{AppID: "demo-app", Network: core.NetworkBase}
}

func TestSignInSuccess(t *testing.T) {
	b, opener, identities := newTestBridge(t, bridge.Options{
		Tokenizer: staticTokenizer{},
	})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`{
		"type": "VILLA_AUTH_SUCCESS",
		"identity": {
			"address": "`+testAddress+`",
			"nickname": "alice",
			"avatar": {"style": "bottts", "selection": "female", "variant": 3}
		}
	}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	require.True(t, o.result.OK)
	require.NotNil(t, o.result.Identity)
	assert.Equal(t, testChecksummed, o.result.Identity.Address)
	assert.Equal(t, "alice", o.result.Identity.Nickname)
	assert.Equal(t, core.Avatar{Style: "bottts", Selection: "female", Variant: 3}, o.result.Identity.Avatar)
	assert.Equal(t, "token-for-"+testChecksummed, o.result.SessionToken)

	stored, err := identities.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, testChecksummed, stored.Address)
}

func TestSignInBuildsTargetURL(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{
		ServiceURL: "https://auth.villa.cx/embed",
	})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	require.Eventually(t, func() bool {
		return s.Target() != ""
	}, time.Second, time.Millisecond)

	u, err := url.Parse(s.Target())
	require.NoError(t, err)
	assert.Equal(t, "demo-app", u.Query().Get("app_id"))
	assert.Equal(t, "base", u.Query().Get("network"))
	assert.Equal(t, callerOrigin, u.Query().Get("origin"))
	assert.NotEmpty(t, u.Query().Get("request_id"))

	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_CANCEL"}`))
	awaitOutcome(t, ch)
}

func TestSignInLegacyNestedError(t *testing.T) {
	b, opener, identities := newTestBridge(t, bridge.Options{})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`{
		"type": "AUTH_ERROR",
		"payload": {"error": "Biometric failed", "code": "AUTH_FAILED"}
	}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.False(t, o.result.OK)
	assert.Equal(t, core.FailureAuthFailed, o.result.Failure)
	assert.Equal(t, "Biometric failed", o.result.Message)

	stored, err := identities.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSignInNetworkError(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_ERROR","error":"Connection lost","code":"NETWORK_ERROR"}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureNetworkError, o.result.Failure)
	assert.Equal(t, "Connection lost", o.result.Message)
}

func TestSignInCancel(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`{"type":"AUTH_CLOSE"}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureCancelled, o.result.Failure)
}

func TestSignInTimeout(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{
		Timeout: 50 * time.Millisecond,
	})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureTimeout, o.result.Failure)

	// Teardown ran: the surface's channel is closed
	_, open := <-s.Messages()
	assert.False(t, open)
}

func TestUntrustedOriginIgnored(t *testing.T) {
	b, opener, identities := newTestBridge(t, bridge.Options{
		Timeout: 150 * time.Millisecond,
	})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	// Well-formed success from an untrusted origin must not resolve
	s.Deliver(untrustedOrigin, []byte(`{
		"type": "VILLA_AUTH_SUCCESS",
		"identity": {"address": "`+testAddress+`", "nickname": "mallory"}
	}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureTimeout, o.result.Failure)

	stored, err := identities.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSuccessWithoutIdentityIgnored(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{
		Timeout: 150 * time.Millisecond,
	})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_SUCCESS"}`))
	s.Deliver(trustedOrigin, []byte(`{"type":"AUTH_SUCCESS","identity":{"address":"not-an-address"}}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureTimeout, o.result.Failure)
}

func TestUnrelatedMessagesIgnored(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`not json at all`))
	s.Deliver(trustedOrigin, []byte(`{"type":"SOMETHING_ELSE"}`))
	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_CANCEL"}`))

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureCancelled, o.result.Failure)
}

func TestMessagesAfterResolutionAreInert(t *testing.T) {
	b, opener, identities := newTestBridge(t, bridge.Options{})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	success, err := json.Marshal(map[string]any{
		"type":     "VILLA_AUTH_SUCCESS",
		"identity": map[string]any{"address": testAddress, "nickname": "alice"},
	})
	require.NoError(t, err)

	s.Deliver(trustedOrigin, success)
	o := awaitOutcome(t, ch)
	require.True(t, o.result.OK)

	// A duplicate after teardown is dropped, not a double resolution
	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_ERROR","error":"late"}`))

	stored, err := identities.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "alice", stored.Nickname)
}

func TestSignInRejectsConcurrentCall(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	_, err := b.SignIn(context.Background(), validConfig())
	assert.ErrorIs(t, err, core.ErrSignInInFlight)

	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_CANCEL"}`))
	awaitOutcome(t, ch)

	// After resolution a new handshake is allowed again
	ch = startSignIn(context.Background(), b, validConfig())
	s = waitForSurface(t, opener)
	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_CANCEL"}`))
	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
}

func TestSignInContextCancellation(t *testing.T) {
	b, opener, _ := newTestBridge(t, bridge.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	ch := startSignIn(ctx, b, validConfig())
	waitForSurface(t, opener)

	cancel()

	o := awaitOutcome(t, ch)
	require.NoError(t, o.err)
	assert.Equal(t, core.FailureCancelled, o.result.Failure)
}

func TestSignInInvalidConfig(t *testing.T) {
	b, _, _ := newTestBridge(t, bridge.Options{})

	_, err := b.SignIn(context.Background(), bridge.Config{Network: core.NetworkBase})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = b.SignIn(context.Background(), bridge.Config{AppID: "demo-app", Network: "dogecoin"})
	assert.ErrorIs(t, err, core.ErrUnknownNetwork)
}

func TestSignOut(t *testing.T) {
	recorder := &eventRecorder{}
	b, _, identities := newTestBridge(t, bridge.Options{Events: recorder})

	err := identities.Set(context.Background(), &core.Identity{Address: testChecksummed, Nickname: "alice"})
	require.NoError(t, err)

	require.NoError(t, b.SignOut(context.Background()))

	stored, err := identities.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, []string{testChecksummed}, recorder.signOuts)

	// Signing out with nothing stored is a no-op
	require.NoError(t, b.SignOut(context.Background()))
	assert.Len(t, recorder.signOuts, 1)
}

func TestSignInPublishesEvent(t *testing.T) {
	recorder := &eventRecorder{}
	b, opener, _ := newTestBridge(t, bridge.Options{Events: recorder})

	ch := startSignIn(context.Background(), b, validConfig())
	s := waitForSurface(t, opener)

	s.Deliver(trustedOrigin, []byte(`{"type":"VILLA_AUTH_SUCCESS","identity":{"address":"`+testAddress+`","nickname":"alice"}}`))

	o := awaitOutcome(t, ch)
	require.True(t, o.result.OK)
	assert.Equal(t, []string{testChecksummed}, recorder.signIns)
}
