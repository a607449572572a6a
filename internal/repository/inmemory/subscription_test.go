package inmemory

import (
	"testing"
	"time"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
)

func TestStatusCacheExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewStatusCache()
	cache.now = func() time.Time { return now }

	status := subscriptiondomain.Status{Tier: subscriptiondomain.TierPremium, Subscribed: true}
	cache.SetByUserID("u1", status, 30*time.Second)

	got, ok := cache.GetByUserID("u1")
	if !ok || got.Tier != subscriptiondomain.TierPremium {
		t.Fatalf("expected cached premium status, got %+v %v", got, ok)
	}

	now = now.Add(31 * time.Second)
	if _, ok := cache.GetByUserID("u1"); ok {
		t.Fatalf("expected entry to expire")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry evicted, got %d", cache.Len())
	}
}

func TestStatusCacheDeleteAndClear(t *testing.T) {
	cache := NewStatusCache()
	cache.SetByUserID("u1", subscriptiondomain.DefaultStatus(), time.Minute)
	cache.SetByUserID("u2", subscriptiondomain.DefaultStatus(), time.Minute)

	cache.DeleteByUserID("u1")
	if _, ok := cache.GetByUserID("u1"); ok {
		t.Fatalf("expected u1 removed")
	}

	cache.Clear()
	if _, ok := cache.GetByUserID("u2"); ok {
		t.Fatalf("expected cache cleared")
	}
}

func TestStatusCacheIgnoresNonPositiveTTL(t *testing.T) {
	cache := NewStatusCache()
	cache.SetByUserID("u1", subscriptiondomain.DefaultStatus(), time.Minute)
	cache.SetByUserID("u1", subscriptiondomain.DefaultStatus(), 0)

	if _, ok := cache.GetByUserID("u1"); ok {
		t.Fatalf("expected zero ttl to drop the entry")
	}
}
