package tokenizer

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/rockfridrich/villa/core"
)

// SessionClaims combines standard claims with the identity's profile fields
type SessionClaims struct {
	jwt.RegisteredClaims
	Nickname string      `json:"nickname"`
	Avatar   core.Avatar `json:"avatar"`
}
