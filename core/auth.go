package core

import "time"

// Network is the target chain tag for a handshake
type Network string

const (
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia"
)

// ValidNetwork reports whether n is one of the supported network tags
func ValidNetwork(n Network) bool {
	return n == NetworkBase || n == NetworkBaseSepolia
}

// SessionState tracks the lifecycle of a single handshake
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateAwaiting  SessionState = "awaiting-response"
	StateResolved  SessionState = "resolved"
	StateTimedOut  SessionState = "timed-out"
	StateCancelled SessionState = "cancelled"
)

// AuthSession is the transient record of one in-flight handshake
type AuthSession struct {
	RequestID string       // Correlation token for the handshake
	State     SessionState // Current lifecycle state
	StartedAt time.Time    // When the handshake began, used for the timeout
}

// FailureKind classifies an expected non-success outcome
type FailureKind string

const (
	FailureCancelled    FailureKind = "cancelled"
	FailureAuthFailed   FailureKind = "auth_failed"
	FailureNetworkError FailureKind = "network_error"
	FailureTimeout      FailureKind = "timeout"
)

// Result is the single resolution of a SignIn call. Expected outcomes
// (cancel, remote failure, timeout) are carried here, never as errors.
type Result struct {
	OK           bool
	Identity     *Identity
	SessionToken string
	Failure      FailureKind
	Message      string
}

// Success builds a successful result
func Success(identity *Identity, token string) Result {
	return Result{OK: true, Identity: identity, SessionToken: token}
}

// Failed builds a typed failure result
func Failed(kind FailureKind, message string) Result {
	return Result{Failure: kind, Message: message}
}
