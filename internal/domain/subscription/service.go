package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultPeriod   = 30 * 24 * time.Hour
	defaultCacheTTL = 30 * time.Second
)

type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	period   time.Duration
	now      func() time.Time
}

func NewService(repo Repository, cache Cache, cacheTTL, period time.Duration) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if period <= 0 {
		period = defaultPeriod
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		period:   period,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetStatus is the primary read. A missing row is not an error: it yields the
// default status.
func (s *Service) GetStatus(ctx context.Context, userID, email string) (Status, error) {
	email = normalizeEmail(email)
	if userID == "" && email == "" {
		return Status{}, ErrIdentityRequired
	}

	if userID != "" {
		if status, ok := s.cache.GetByUserID(userID); ok {
			return status, nil
		}
	}

	row, err := s.repo.FindSubscriber(ctx, userID, email)
	if err != nil && !errors.Is(err, ErrSubscriberNotFound) {
		return Status{}, err
	}

	status := StatusOf(row, s.now())
	if userID != "" {
		s.cache.SetByUserID(userID, status, s.cacheTTL)
	}
	return status, nil
}

// CheckStatus re-reads storage without the cache. It links the row to the
// user id when only the email matched and expires rows past their end date.
func (s *Service) CheckStatus(ctx context.Context, userID, email string) (Status, error) {
	email = normalizeEmail(email)
	if userID == "" && email == "" {
		return Status{}, ErrIdentityRequired
	}

	now := s.now()
	var status Status
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		row, err := tx.FindSubscriber(ctx, userID, email)
		if errors.Is(err, ErrSubscriberNotFound) {
			status = DefaultStatus()
			return nil
		}
		if err != nil {
			return err
		}

		if userID != "" && row.UserID == nil {
			if err := tx.LinkUser(ctx, row.Email, userID); err != nil {
				return err
			}
			row.UserID = &userID
		}

		if row.Subscribed && row.SubscriptionEnd != nil && row.SubscriptionEnd.Before(now) {
			if err := tx.SetSubscribed(ctx, row.Email, false, TierIndividual, row.SubscriptionEnd); err != nil {
				return err
			}
			row.Subscribed = false
			row.SubscriptionTier = TierIndividual
		}

		status = StatusOf(row, now)
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	if userID != "" {
		s.cache.SetByUserID(userID, status, s.cacheTTL)
	}
	return status, nil
}

// Cancel is the one transition the application requests on its own.
func (s *Service) Cancel(ctx context.Context, userID, email string) (Status, error) {
	email = normalizeEmail(email)
	if userID == "" && email == "" {
		return Status{}, ErrIdentityRequired
	}

	row, err := s.repo.FindSubscriber(ctx, userID, email)
	if err != nil {
		return Status{}, err
	}
	if err := s.repo.SetSubscribed(ctx, row.Email, false, TierIndividual, row.SubscriptionEnd); err != nil {
		return Status{}, err
	}

	s.invalidate(userID, row.UserID)
	return DefaultStatus(), nil
}

type webhookPayload struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Email  string     `json:"email"`
	UserID string     `json:"user_id"`
	Tier   string     `json:"tier"`
	PaidAt *time.Time `json:"paid_at"`
}

// ParseEvent decodes a webhook body and keeps the raw bytes as payload.
func ParseEvent(body []byte) (PaymentEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	event := PaymentEvent{
		ID:      strings.TrimSpace(payload.ID),
		Type:    strings.TrimSpace(payload.Type),
		Email:   normalizeEmail(payload.Email),
		Tier:    strings.TrimSpace(payload.Tier),
		Payload: datatypes.JSON(body),
	}
	if userID := strings.TrimSpace(payload.UserID); userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return PaymentEvent{}, fmt.Errorf("%w: user_id %q is not a uuid", ErrInvalidEvent, userID)
		}
		event.UserID = &userID
	}
	if payload.PaidAt != nil {
		event.PaidAt = payload.PaidAt.UTC()
	}
	return event, nil
}

// ApplyPaymentEvent records the event and updates the subscriber row in one
// transaction. A repeated event id is a no-op and reports false.
func (s *Service) ApplyPaymentEvent(ctx context.Context, event PaymentEvent) (bool, error) {
	if event.ID == "" || event.Email == "" {
		return false, ErrInvalidEvent
	}
	switch event.Type {
	case EventPaymentSucceeded:
		if !ValidTier(event.Tier) {
			return false, fmt.Errorf("%w: %q", ErrInvalidTier, event.Tier)
		}
	case EventSubscriptionCancelled:
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}
	if event.PaidAt.IsZero() {
		event.PaidAt = s.now()
	}
	if len(event.Payload) == 0 {
		event.Payload = datatypes.JSON("{}")
	}

	var linked *string
	applied := false
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		recorded, err := tx.RecordEvent(ctx, &event)
		if err != nil {
			return err
		}
		if !recorded {
			return nil
		}

		row := Subscriber{
			Email:  event.Email,
			UserID: event.UserID,
		}
		if event.Type == EventPaymentSucceeded {
			end := event.PaidAt.Add(s.period)
			row.Subscribed = true
			row.SubscriptionTier = event.Tier
			row.SubscriptionEnd = &end
		} else {
			row.Subscribed = false
			row.SubscriptionTier = TierIndividual
		}
		if err := tx.UpsertSubscriber(ctx, &row); err != nil {
			return err
		}

		stored, err := tx.FindSubscriber(ctx, "", event.Email)
		if err != nil {
			return err
		}
		linked = stored.UserID
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		if event.UserID == nil && linked == nil {
			// Cached entries are keyed by user id; without one the row's
			// reader is unknown.
			s.cache.Clear()
		} else {
			s.invalidate(deref(event.UserID), linked)
		}
	}
	return applied, nil
}

func (s *Service) invalidate(userID string, linked *string) {
	if userID != "" {
		s.cache.DeleteByUserID(userID)
	}
	if linked != nil && *linked != "" {
		s.cache.DeleteByUserID(*linked)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
