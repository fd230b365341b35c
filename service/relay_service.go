package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/shopspring/decimal"

	"github.com/rockfridrich/villa/core"
	"github.com/rockfridrich/villa/internal/eth"
	"github.com/rockfridrich/villa/ports"
)

// SponsorshipDecision is the outcome of a gas-sponsoring eligibility check
type SponsorshipDecision struct {
	Eligible  bool            `json:"eligible"`
	Reason    string          `json:"reason,omitempty"`
	Remaining decimal.Decimal `json:"remaining"`
}

// RelayService decides whether the relay sponsors gas for a transaction
type RelayService struct {
	profiles ports.ProfileStore
	ledger   ports.SpendLedger
	logger   watermill.LoggerAdapter

	dailyBudget  decimal.Decimal // per address, in ETH
	perTxCeiling decimal.Decimal // per transaction, in ETH
	window       time.Duration
}

// NewRelayService creates a new relay service
func NewRelayService(profiles ports.ProfileStore, ledger ports.SpendLedger, logger watermill.LoggerAdapter) *RelayService {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &RelayService{
		profiles:     profiles,
		ledger:       ledger,
		logger:       logger,
		dailyBudget:  decimal.RequireFromString("0.001"),
		perTxCeiling: decimal.RequireFromString("0.0002"),
		window:       24 * time.Hour,
	}
}

// Sponsor checks eligibility and, when eligible, records the spend
// against the address's rolling window
func (s *RelayService) Sponsor(ctx context.Context, address string, network core.Network, gasCost decimal.Decimal) (SponsorshipDecision, error) {
	if !core.ValidNetwork(network) {
		return s.reject("unsupported network"), nil
	}

	checksummed, err := eth.Checksum(address)
	if err != nil {
		return s.reject("invalid address"), nil
	}

	if !gasCost.IsPositive() {
		return s.reject("gas cost must be positive"), nil
	}

	if gasCost.GreaterThan(s.perTxCeiling) {
		return s.reject("gas cost exceeds per-transaction ceiling"), nil
	}

	// Sponsorship is for registered users only
	profile, err := s.profiles.Get(ctx, checksummed)
	if errors.Is(err, core.ErrProfileNotFound) {
		return s.reject("address has no registered profile"), nil
	}
	if err != nil {
		return SponsorshipDecision{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.Nickname == "" {
		return s.reject("profile has no nickname"), nil
	}

	total, err := s.ledger.Total(ctx, checksummed)
	if err != nil {
		return SponsorshipDecision{}, fmt.Errorf("failed to read spend: %w", err)
	}

	if total.Add(gasCost).GreaterThan(s.dailyBudget) {
		remaining := s.dailyBudget.Sub(total)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return SponsorshipDecision{
			Eligible:  false,
			Reason:    "daily sponsorship budget exhausted",
			Remaining: remaining,
		}, nil
	}

	newTotal, err := s.ledger.Add(ctx, checksummed, gasCost, s.window)
	if err != nil {
		return SponsorshipDecision{}, fmt.Errorf("failed to record spend: %w", err)
	}

	s.logger.Info("sponsoring transaction", watermill.LogFields{
		"address": checksummed,
		"network": string(network),
		"cost":    gasCost.String(),
	})

	return SponsorshipDecision{
		Eligible:  true,
		Remaining: s.dailyBudget.Sub(newTotal),
	}, nil
}

func (s *RelayService) reject(reason string) SponsorshipDecision {
	return SponsorshipDecision{
		Eligible:  false,
		Reason:    reason,
		Remaining: decimal.Zero,
	}
}
