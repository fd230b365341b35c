package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rockfridrich/villa/core"
	"github.com/rockfridrich/villa/ports"
)

// MemoryIdentityStore is an in-memory implementation of the IdentityStore
// interface
type MemoryIdentityStore struct {
	identity *core.Identity
	mu       sync.RWMutex
}

// NewMemoryIdentityStore creates a new in-memory identity store
func NewMemoryIdentityStore() ports.IdentityStore {
	return &MemoryIdentityStore{}
}

// Get returns the stored identity, or nil when none is stored
func (s *MemoryIdentityStore) Get(ctx context.Context) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil, nil
	}

	identity := *s.identity
	return &identity, nil
}

// Set persists the identity
func (s *MemoryIdentityStore) Set(ctx context.Context, identity *core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *identity
	s.identity = &copied
	return nil
}

// Clear removes the stored identity
func (s *MemoryIdentityStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	return nil
}

// MemoryProfileStore is an in-memory implementation of the ProfileStore
// interface
type MemoryProfileStore struct {
	profiles map[string]core.Identity
	mu       sync.RWMutex
}

// NewMemoryProfileStore creates a new in-memory profile store
func NewMemoryProfileStore() ports.ProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]core.Identity),
	}
}

// Get returns the profile for an address
func (s *MemoryProfileStore) Get(ctx context.Context, address string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, exists := s.profiles[address]
	if !exists {
		return nil, core.ErrProfileNotFound
	}

	return &identity, nil
}

// Save persists the profile keyed by its address
func (s *MemoryProfileStore) Save(ctx context.Context, identity *core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[identity.Address] = *identity
	return nil
}

type hold struct {
	address string
	expires time.Time
}

// MemoryNicknameRegistry is an in-memory implementation of the
// NicknameRegistry interface
type MemoryNicknameRegistry struct {
	holds  map[string]hold
	owners map[string]string
	mu     sync.Mutex
}

// NewMemoryNicknameRegistry creates a new in-memory nickname registry
func NewMemoryNicknameRegistry() ports.NicknameRegistry {
	return &MemoryNicknameRegistry{
		holds:  make(map[string]hold),
		owners: make(map[string]string),
	}
}

// Reserve places a TTL'd hold on a nickname for an address
func (r *MemoryNicknameRegistry) Reserve(ctx context.Context, nickname, address string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, owned := r.owners[nickname]; owned {
		return false, nil
	}

	if h, exists := r.holds[nickname]; exists && time.Now().Before(h.expires) && h.address != address {
		return false, nil
	}

	r.holds[nickname] = hold{address: address, expires: time.Now().Add(ttl)}
	return true, nil
}

// Holder returns the address currently holding a reservation, or ""
func (r *MemoryNicknameRegistry) Holder(ctx context.Context, nickname string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, exists := r.holds[nickname]
	if !exists || time.Now().After(h.expires) {
		return "", nil
	}
	return h.address, nil
}

// Claim converts the caller's hold into permanent ownership
func (r *MemoryNicknameRegistry) Claim(ctx context.Context, nickname, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, exists := r.holds[nickname]
	if !exists || time.Now().After(h.expires) || h.address != address {
		return core.ErrNoReservation
	}

	r.owners[nickname] = address
	delete(r.holds, nickname)
	return nil
}

// Release drops the caller's hold, if any
func (r *MemoryNicknameRegistry) Release(ctx context.Context, nickname, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, exists := r.holds[nickname]; exists && h.address == address {
		delete(r.holds, nickname)
	}
	return nil
}

// Owner returns the address owning a nickname, or ""
func (r *MemoryNicknameRegistry) Owner(ctx context.Context, nickname string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.owners[nickname], nil
}

type spendWindow struct {
	total   decimal.Decimal
	expires time.Time
}

// MemorySpendLedger is an in-memory implementation of the SpendLedger
// interface
type MemorySpendLedger struct {
	spend map[string]spendWindow
	mu    sync.Mutex
}

// NewMemorySpendLedger creates a new in-memory spend ledger
func NewMemorySpendLedger() ports.SpendLedger {
	return &MemorySpendLedger{
		spend: make(map[string]spendWindow),
	}
}

// Add records sponsored spend and returns the new window total
func (l *MemorySpendLedger) Add(ctx context.Context, address string, amount decimal.Decimal, window time.Duration) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.spend[address]
	if !exists || time.Now().After(w.expires) {
		w = spendWindow{total: decimal.Zero, expires: time.Now().Add(window)}
	}

	w.total = w.total.Add(amount)
	l.spend[address] = w
	return w.total, nil
}

// Total returns the spend recorded in the current window
func (l *MemorySpendLedger) Total(ctx context.Context, address string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.spend[address]
	if !exists || time.Now().After(w.expires) {
		return decimal.Zero, nil
	}
	return w.total, nil
}
