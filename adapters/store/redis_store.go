package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rockfridrich/villa/core"
	"github.com/rockfridrich/villa/ports"
)

// RedisIdentityStore is a Redis implementation of the IdentityStore
// interface. One record per installation.
type RedisIdentityStore struct {
	client *redis.Client
	key    string
}

// NewRedisIdentityStore creates a new Redis identity store
func NewRedisIdentityStore(client *redis.Client, installationID string) ports.IdentityStore {
	return &RedisIdentityStore{
		client: client,
		key:    "villa:identity:" + installationID,
	}
}

// Get returns the stored identity, or nil when none is stored
func (s *RedisIdentityStore) Get(ctx context.Context) (*core.Identity, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	var identity core.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}

	return &identity, nil
}

// Set persists the identity
func (s *RedisIdentityStore) Set(ctx context.Context, identity *core.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store identity: %w", err)
	}

	return nil
}

// Clear removes the stored identity
func (s *RedisIdentityStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}

// RedisProfileStore is a Redis implementation of the ProfileStore interface
type RedisProfileStore struct {
	client *redis.Client
	prefix string
}

// NewRedisProfileStore creates a new Redis profile store
func NewRedisProfileStore(client *redis.Client) ports.ProfileStore {
	return &RedisProfileStore{
		client: client,
		prefix: "villa:profile:",
	}
}

// Get returns the profile for an address
func (s *RedisProfileStore) Get(ctx context.Context, address string) (*core.Identity, error) {
	data, err := s.client.Get(ctx, s.prefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var identity core.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	return &identity, nil
}

// Save persists the profile keyed by its address
func (s *RedisProfileStore) Save(ctx context.Context, identity *core.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+identity.Address, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}

	return nil
}

// RedisNicknameRegistry is a Redis implementation of the NicknameRegistry
// interface. Holds are TTL'd SETNX keys; ownership is a permanent key.
type RedisNicknameRegistry struct {
	client      *redis.Client
	holdPrefix  string
	ownerPrefix string
}

// NewRedisNicknameRegistry creates a new Redis nickname registry
func NewRedisNicknameRegistry(client *redis.Client) ports.NicknameRegistry {
	return &RedisNicknameRegistry{
		client:      client,
		holdPrefix:  "villa:nickname:hold:",
		ownerPrefix: "villa:nickname:owner:",
	}
}

// Reserve places a TTL'd hold on a nickname for an address
func (r *RedisNicknameRegistry) Reserve(ctx context.Context, nickname, address string, ttl time.Duration) (bool, error) {
	owner, err := r.Owner(ctx, nickname)
	if err != nil {
		return false, err
	}
	if owner != "" {
		return false, nil
	}

	ok, err := r.client.SetNX(ctx, r.holdPrefix+nickname, address, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve nickname: %w", err)
	}
	if ok {
		return true, nil
	}

	// Re-reserving an own hold refreshes its TTL
	holder, err := r.Holder(ctx, nickname)
	if err != nil {
		return false, err
	}
	if holder != address {
		return false, nil
	}

	if err := r.client.Set(ctx, r.holdPrefix+nickname, address, ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to refresh reservation: %w", err)
	}

	return true, nil
}

// Holder returns the address currently holding a reservation, or ""
func (r *RedisNicknameRegistry) Holder(ctx context.Context, nickname string) (string, error) {
	holder, err := r.client.Get(ctx, r.holdPrefix+nickname).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read reservation: %w", err)
	}
	return holder, nil
}

// Claim converts the caller's hold into permanent ownership
func (r *RedisNicknameRegistry) Claim(ctx context.Context, nickname, address string) error {
	holder, err := r.Holder(ctx, nickname)
	if err != nil {
		return err
	}
	if holder != address {
		return core.ErrNoReservation
	}

	if err := r.client.Set(ctx, r.ownerPrefix+nickname, address, 0).Err(); err != nil {
		return fmt.Errorf("failed to claim nickname: %w", err)
	}

	if err := r.client.Del(ctx, r.holdPrefix+nickname).Err(); err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}

	return nil
}

// Release drops the caller's hold, if any
func (r *RedisNicknameRegistry) Release(ctx context.Context, nickname, address string) error {
	holder, err := r.Holder(ctx, nickname)
	if err != nil {
		return err
	}
	if holder != address {
		return nil
	}

	if err := r.client.Del(ctx, r.holdPrefix+nickname).Err(); err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}

	return nil
}

// Owner returns the address owning a nickname, or ""
func (r *RedisNicknameRegistry) Owner(ctx context.Context, nickname string) (string, error) {
	owner, err := r.client.Get(ctx, r.ownerPrefix+nickname).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read nickname owner: %w", err)
	}
	return owner, nil
}

// RedisSpendLedger is a Redis implementation of the SpendLedger interface.
// The per-address counter expires with the rolling window.
type RedisSpendLedger struct {
	client *redis.Client
	prefix string
}

// NewRedisSpendLedger creates a new Redis spend ledger
func NewRedisSpendLedger(client *redis.Client) ports.SpendLedger {
	return &RedisSpendLedger{
		client: client,
		prefix: "villa:relay:spend:",
	}
}

// Add records sponsored spend and returns the new window total
func (l *RedisSpendLedger) Add(ctx context.Context, address string, amount decimal.Decimal, window time.Duration) (decimal.Decimal, error) {
	key := l.prefix + address

	total, err := l.client.IncrByFloat(ctx, key, amount.InexactFloat64()).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to record spend: %w", err)
	}

	// Expiry is only set when the key is created, so the window is
	// anchored at the first sponsored transaction.
	if err := l.client.ExpireNX(ctx, key, window).Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to set spend window: %w", err)
	}

	return decimal.NewFromFloat(total), nil
}

// Total returns the spend recorded in the current window
func (l *RedisSpendLedger) Total(ctx context.Context, address string) (decimal.Decimal, error) {
	val, err := l.client.Get(ctx, l.prefix+address).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read spend: %w", err)
	}

	total, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse spend: %w", err)
	}

	return total, nil
}
