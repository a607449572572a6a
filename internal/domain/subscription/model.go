package subscription

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TierIndividual   = "Individual"
	TierPremium      = "Premium"
	TierOrganization = "Organization"
)

const (
	EventPaymentSucceeded      = "payment.succeeded"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// Subscriber is written by the payment webhook and read by status checks.
// The application itself only ever cancels.
type Subscriber struct {
	Email            string     `gorm:"type:text;primaryKey"`
	UserID           *string    `gorm:"type:uuid;index"`
	Subscribed       bool       `gorm:"not null;default:false"`
	SubscriptionTier string     `gorm:"type:varchar(32);not null;default:Individual"`
	SubscriptionEnd  *time.Time `gorm:"type:timestamptz"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

type Status struct {
	Tier            string
	Subscribed      bool
	SubscriptionEnd *time.Time
}

// DefaultStatus is the least privileged state, used whenever nothing better
// is known.
func DefaultStatus() Status {
	return Status{Tier: TierIndividual, Subscribed: false}
}

// StatusOf turns a stored row into what callers see. A row whose end date has
// passed reads as the default even before it is expired in storage.
func StatusOf(row *Subscriber, now time.Time) Status {
	if row == nil || !row.Subscribed {
		return DefaultStatus()
	}
	if row.SubscriptionEnd != nil && row.SubscriptionEnd.Before(now) {
		return DefaultStatus()
	}
	return Status{
		Tier:            row.SubscriptionTier,
		Subscribed:      true,
		SubscriptionEnd: row.SubscriptionEnd,
	}
}

type PaymentEvent struct {
	ID         string         `gorm:"type:text;primaryKey"`
	Type       string         `gorm:"type:varchar(64);not null"`
	Email      string         `gorm:"type:text;not null;index"`
	UserID     *string        `gorm:"type:uuid"`
	Tier       string         `gorm:"type:varchar(32)"`
	PaidAt     time.Time      `gorm:"type:timestamptz"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null"`
	ReceivedAt time.Time      `gorm:"autoCreateTime"`
}

func ValidTier(tier string) bool {
	switch tier {
	case TierIndividual, TierPremium, TierOrganization:
		return true
	default:
		return false
	}
}
