package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rockfridrich/villa/core"
	"github.com/rockfridrich/villa/internal/eth"
	"github.com/rockfridrich/villa/ports"
)

// nicknamePattern: 3-20 chars, lowercase letters/digits/hyphens, must
// start with a letter
var nicknamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{2,19}$`)

// ProfileService handles nickname and avatar business logic
type ProfileService struct {
	profiles  ports.ProfileStore
	nicknames ports.NicknameRegistry

	reservationTTL time.Duration
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ports.ProfileStore, nicknames ports.NicknameRegistry) *ProfileService {
	return &ProfileService{
		profiles:       profiles,
		nicknames:      nicknames,
		reservationTTL: 10 * time.Minute,
	}
}

// ValidateNickname checks a nickname against the naming rules
func ValidateNickname(nickname string) error {
	if !nicknamePattern.MatchString(nickname) {
		return fmt.Errorf("%w: %q", core.ErrInvalidNickname, nickname)
	}
	return nil
}

// Get returns the profile for an address
func (s *ProfileService) Get(ctx context.Context, address string) (*core.Identity, error) {
	checksummed, err := eth.Checksum(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	return s.profiles.Get(ctx, checksummed)
}

// ReserveNickname places a time-limited hold on a nickname for an address
func (s *ProfileService) ReserveNickname(ctx context.Context, nickname, address string) error {
	if err := ValidateNickname(nickname); err != nil {
		return err
	}

	checksummed, err := eth.Checksum(address)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	ok, err := s.nicknames.Reserve(ctx, nickname, checksummed, s.reservationTTL)
	if err != nil {
		return fmt.Errorf("failed to reserve nickname: %w", err)
	}
	if ok {
		return nil
	}

	owner, err := s.nicknames.Owner(ctx, nickname)
	if err != nil {
		return fmt.Errorf("failed to check nickname owner: %w", err)
	}
	if owner != "" {
		return core.ErrNicknameTaken
	}

	return core.ErrNicknameHeld
}

// ClaimNickname converts the caller's hold into permanent ownership and
// updates the profile
func (s *ProfileService) ClaimNickname(ctx context.Context, nickname, address string) (*core.Identity, error) {
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}

	checksummed, err := eth.Checksum(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	if err := s.nicknames.Claim(ctx, nickname, checksummed); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, checksummed)
	if errors.Is(err, core.ErrProfileNotFound) {
		profile = &core.Identity{Address: checksummed}
	} else if err != nil {
		return nil, err
	}

	profile.Nickname = nickname
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return profile, nil
}

// ReleaseNickname drops the caller's hold, if any
func (s *ProfileService) ReleaseNickname(ctx context.Context, nickname, address string) error {
	checksummed, err := eth.Checksum(address)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	return s.nicknames.Release(ctx, nickname, checksummed)
}

// Available reports whether a nickname is neither owned nor held
func (s *ProfileService) Available(ctx context.Context, nickname string) (bool, error) {
	if err := ValidateNickname(nickname); err != nil {
		return false, err
	}

	owner, err := s.nicknames.Owner(ctx, nickname)
	if err != nil {
		return false, err
	}
	if owner != "" {
		return false, nil
	}

	holder, err := s.nicknames.Holder(ctx, nickname)
	if err != nil {
		return false, err
	}

	return holder == "", nil
}

// SetAvatar updates the avatar descriptor on a profile, creating the
// profile if the address has none yet
func (s *ProfileService) SetAvatar(ctx context.Context, address string, avatar core.Avatar) (*core.Identity, error) {
	if !core.ValidAvatarStyle(avatar.Style) || avatar.Selection == "" || avatar.Variant < 0 {
		return nil, core.ErrInvalidAvatar
	}

	checksummed, err := eth.Checksum(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	profile, err := s.profiles.Get(ctx, checksummed)
	if errors.Is(err, core.ErrProfileNotFound) {
		profile = &core.Identity{Address: checksummed}
	} else if err != nil {
		return nil, err
	}

	profile.Avatar = avatar
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return profile, nil
}
