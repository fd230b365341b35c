package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/rockfridrich/villa/ports"
)

// SignInEvent represents a completed handshake
type SignInEvent struct {
	Address   string `json:"address"`
	RequestID string `json:"request_id"`
}

// SignOutEvent represents a cleared identity
type SignOutEvent struct {
	Address string `json:"address"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher    message.Publisher
	signInTopic  string
	signOutTopic string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher:    publisher,
		signInTopic:  "villa.signin",
		signOutTopic: "villa.signout",
	}
}

// PublishSignIn publishes a sign-in event
func (p *WatermillPublisher) PublishSignIn(ctx context.Context, address string, requestID string) error {
	event := SignInEvent{
		Address:   address,
		RequestID: requestID,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(requestID, payload)

	if err := p.publisher.Publish(p.signInTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishSignOut publishes a sign-out event
func (p *WatermillPublisher) PublishSignOut(ctx context.Context, address string) error {
	event := SignOutEvent{Address: address}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.signOutTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
