package ports

import "github.com/rockfridrich/villa/core"

// Tokenizer converts between identities and session tokens
type Tokenizer interface {
	// IdentityToToken issues a signed session token for an identity
	IdentityToToken(identity *core.Identity) (string, error)

	// TokenToIdentity parses and validates a session token, returning
	// the identity it was issued for
	TokenToIdentity(token string) (*core.Identity, error)
}
