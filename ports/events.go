package ports

import "context"

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishSignIn(ctx context.Context, address string, requestID string) error
	PublishSignOut(ctx context.Context, address string) error
}
