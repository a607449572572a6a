package subscription

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// FindSubscriber looks the row up by user id first, then by email.
	FindSubscriber(ctx context.Context, userID, email string) (*Subscriber, error)
	UpsertSubscriber(ctx context.Context, subscriber *Subscriber) error
	LinkUser(ctx context.Context, email, userID string) error
	SetSubscribed(ctx context.Context, email string, subscribed bool, tier string, end *time.Time) error
	// RecordEvent stores the event once. It reports false for a repeated id.
	RecordEvent(ctx context.Context, event *PaymentEvent) (bool, error)
}
