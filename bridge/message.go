package bridge

import (
	"encoding/json"

	"github.com/rockfridrich/villa/core"
)

// Message type discriminators accepted from the remote authentication
// service. The unprefixed forms are the legacy protocol.
const (
	TypeSuccess       = "VILLA_AUTH_SUCCESS"
	TypeError         = "VILLA_AUTH_ERROR"
	TypeCancel        = "VILLA_AUTH_CANCEL"
	TypeSuccessLegacy = "AUTH_SUCCESS"
	TypeErrorLegacy   = "AUTH_ERROR"
	TypeCancelLegacy  = "AUTH_CLOSE"
)

// CodeNetworkError is the remote error code for connectivity failures
const CodeNetworkError = "NETWORK_ERROR"

type messageKind int

const (
	kindSuccess messageKind = iota
	kindError
	kindCancel
)

// classified is the single internal shape both wire forms normalize to
type classified struct {
	kind     messageKind
	identity *core.Identity
	message  string
	code     string
}

// rawMessage covers both the flat shape and the legacy nested shape
type rawMessage struct {
	Type     string         `json:"type"`
	Identity *core.Identity `json:"identity,omitempty"`
	Error    string         `json:"error,omitempty"`
	Code     string         `json:"code,omitempty"`
	Payload  *rawPayload    `json:"payload,omitempty"`
}

type rawPayload struct {
	Identity *core.Identity `json:"identity,omitempty"`
	Error    string         `json:"error,omitempty"`
	Code     string         `json:"code,omitempty"`
}

// classify parses untrusted message data into one of the recognized
// variants. The second return is false for anything that is not a
// well-formed message of a known type; such messages are ignored, since
// unrelated traffic may arrive on the same channel.
func classify(data []byte) (classified, bool) {
	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return classified{}, false
	}

	switch raw.Type {
	case TypeSuccess, TypeSuccessLegacy:
		identity := raw.Identity
		if identity == nil && raw.Payload != nil {
			identity = raw.Payload.Identity
		}
		return classified{kind: kindSuccess, identity: identity}, true

	case TypeError, TypeErrorLegacy:
		message, code := raw.Error, raw.Code
		if raw.Payload != nil {
			if message == "" {
				message = raw.Payload.Error
			}
			if code == "" {
				code = raw.Payload.Code
			}
		}
		if message == "" {
			message = "authentication failed"
		}
		return classified{kind: kindError, message: message, code: code}, true

	case TypeCancel, TypeCancelLegacy:
		return classified{kind: kindCancel}, true
	}

	return classified{}, false
}

// failureForCode maps a remote error code to a failure kind
func failureForCode(code string) core.FailureKind {
	if code == CodeNetworkError {
		return core.FailureNetworkError
	}
	return core.FailureAuthFailed
}
