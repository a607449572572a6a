package subscription

import (
	"context"
	"errors"
	"time"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(subscriptiondomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) FindSubscriber(ctx context.Context, userID, email string) (*subscriptiondomain.Subscriber, error) {
	if userID != "" {
		var subscriber subscriptiondomain.Subscriber
		err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at desc").First(&subscriber).Error
		if err == nil {
			return &subscriber, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if email == "" {
		return nil, subscriptiondomain.ErrSubscriberNotFound
	}

	var subscriber subscriptiondomain.Subscriber
	if err := r.db.WithContext(ctx).Where("lower(email) = ?", email).First(&subscriber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscriptiondomain.ErrSubscriberNotFound
		}
		return nil, err
	}
	return &subscriber, nil
}

// UpsertSubscriber keeps an already linked user id when the incoming row has
// none.
func (r *PostgresRepository) UpsertSubscriber(ctx context.Context, subscriber *subscriptiondomain.Subscriber) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"user_id":           gorm.Expr("COALESCE(EXCLUDED.user_id, subscribers.user_id)"),
				"subscribed":        gorm.Expr("EXCLUDED.subscribed"),
				"subscription_tier": gorm.Expr("EXCLUDED.subscription_tier"),
				"subscription_end":  gorm.Expr("EXCLUDED.subscription_end"),
				"updated_at":        time.Now().UTC(),
			}),
		}).
		Create(subscriber).Error
}

func (r *PostgresRepository) LinkUser(ctx context.Context, email, userID string) error {
	return r.db.WithContext(ctx).
		Model(&subscriptiondomain.Subscriber{}).
		Where("email = ? AND user_id IS NULL", email).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *PostgresRepository) SetSubscribed(ctx context.Context, email string, subscribed bool, tier string, end *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&subscriptiondomain.Subscriber{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"subscribed":        subscribed,
			"subscription_tier": tier,
			"subscription_end":  end,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return subscriptiondomain.ErrSubscriberNotFound
	}
	return nil
}

func (r *PostgresRepository) RecordEvent(ctx context.Context, event *subscriptiondomain.PaymentEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
