package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rockfridrich/villa/core"
)

// IdentityStore persists the last-known identity of this installation.
// A single record; Get returns nil when no identity is stored.
type IdentityStore interface {
	Get(ctx context.Context) (*core.Identity, error)
	Set(ctx context.Context, identity *core.Identity) error
	Clear(ctx context.Context) error
}

// ProfileStore persists server-side profiles keyed by address
type ProfileStore interface {
	Get(ctx context.Context, address string) (*core.Identity, error)
	Save(ctx context.Context, identity *core.Identity) error
}

// NicknameRegistry enforces global nickname uniqueness with a two-step
// reserve/claim flow. Reserve returns false when the hold could not be
// placed because another address holds or owns the name.
type NicknameRegistry interface {
	Reserve(ctx context.Context, nickname, address string, ttl time.Duration) (bool, error)
	Holder(ctx context.Context, nickname string) (string, error)
	Claim(ctx context.Context, nickname, address string) error
	Release(ctx context.Context, nickname, address string) error
	Owner(ctx context.Context, nickname string) (string, error)
}

// SpendLedger tracks sponsored gas spend per address within a rolling window
type SpendLedger interface {
	Add(ctx context.Context, address string, amount decimal.Decimal, window time.Duration) (decimal.Decimal, error)
	Total(ctx context.Context, address string) (decimal.Decimal, error)
}
