package core

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid sign-in config")
	ErrSignInInFlight  = errors.New("sign-in already in progress")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrInvalidAddress  = errors.New("invalid account address")
	ErrInvalidNickname = errors.New("invalid nickname")
	ErrNicknameTaken   = errors.New("nickname already taken")
	ErrNicknameHeld    = errors.New("nickname reserved by another address")
	ErrNoReservation   = errors.New("no reservation held for nickname")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidAvatar   = errors.New("invalid avatar descriptor")
	ErrUnknownNetwork  = errors.New("unknown network tag")
)
