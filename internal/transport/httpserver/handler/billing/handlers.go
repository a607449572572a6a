package billing

import (
	"context"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
	"finance-app-go/pkg/logger"
)

type Service interface {
	GetStatus(ctx context.Context, userID, email string) (subscriptiondomain.Status, error)
	CheckStatus(ctx context.Context, userID, email string) (subscriptiondomain.Status, error)
	Cancel(ctx context.Context, userID, email string) (subscriptiondomain.Status, error)
	ApplyPaymentEvent(ctx context.Context, event subscriptiondomain.PaymentEvent) (bool, error)
}

// Recorder counts webhook outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	Webhook(outcome string)
}

type Handlers struct {
	Subscriptions Service
	webhookSecret string
	metrics       Recorder
	log           logger.Logger
}

func New(subscriptions Service, webhookSecret string, metrics Recorder, log logger.Logger) *Handlers {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Handlers{
		Subscriptions: subscriptions,
		webhookSecret: webhookSecret,
		metrics:       metrics,
		log:           log,
	}
}

type noopRecorder struct{}

func (noopRecorder) Webhook(string) {}
