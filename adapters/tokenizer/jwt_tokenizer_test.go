package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockfridrich/villa/core"
)

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tok := NewJWTTokenizer(newTestKey(t))

	identity := &core.Identity{
		Address:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Nickname: "alice",
		Avatar:   core.Avatar{Style: "bottts", Selection: "female", Variant: 3},
	}

	token, err := tok.IdentityToToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := tok.TokenToIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, identity.Address, parsed.Address)
	assert.Equal(t, identity.Nickname, parsed.Nickname)
	assert.Equal(t, identity.Avatar, parsed.Avatar)
}

func TestTokenFromAnotherKeyRejected(t *testing.T) {
	issuer := NewJWTTokenizer(newTestKey(t))
	verifier := NewJWTTokenizer(newTestKey(t))

	token, err := issuer.IdentityToToken(&core.Identity{Address: "0xabc"})
	require.NoError(t, err)

	_, err = verifier.TokenToIdentity(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	tok := NewJWTTokenizer(newTestKey(t))

	_, err := tok.TokenToIdentity("not.a.token")
	assert.Error(t, err)

	_, err = tok.TokenToIdentity("")
	assert.Error(t, err)
}
