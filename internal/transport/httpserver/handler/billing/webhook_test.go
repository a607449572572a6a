package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
	"finance-app-go/internal/metrics"
	"finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
)

type fakeSubscriptions struct {
	applied map[string]bool
	status  subscriptiondomain.Status
	err     error
}

func (s *fakeSubscriptions) GetStatus(ctx context.Context, userID, email string) (subscriptiondomain.Status, error) {
	return s.status, s.err
}

func (s *fakeSubscriptions) CheckStatus(ctx context.Context, userID, email string) (subscriptiondomain.Status, error) {
	return s.status, s.err
}

func (s *fakeSubscriptions) Cancel(ctx context.Context, userID, email string) (subscriptiondomain.Status, error) {
	if s.err != nil {
		return subscriptiondomain.Status{}, s.err
	}
	return subscriptiondomain.DefaultStatus(), nil
}

func (s *fakeSubscriptions) ApplyPaymentEvent(ctx context.Context, event subscriptiondomain.PaymentEvent) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.applied[event.ID] {
		return false, nil
	}
	s.applied[event.ID] = true
	return true, nil
}

type countingRecorder map[string]int

func (c countingRecorder) Webhook(outcome string) { c[outcome]++ }

const testSecret = "whsec"

func postWebhook(h *Handlers, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(subscriptiondomain.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.PaymentWebhook(rec, req)
	return rec
}

func TestPaymentWebhook(t *testing.T) {
	service := &fakeSubscriptions{applied: map[string]bool{}}
	recorder := countingRecorder{}
	h := New(service, testSecret, recorder, logger.Discard())

	body := `{"id":"evt_1","type":"payment.succeeded","email":"a@example.com","tier":"Premium"}`
	signature := subscriptiondomain.Sign(testSecret, []byte(body))

	rec := postWebhook(h, body, signature)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var response webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !response.Received || !response.Applied {
		t.Fatalf("expected applied, got %+v", response)
	}

	rec = postWebhook(h, body, "sha256="+signature)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"applied":false`) {
		t.Fatalf("expected duplicate to be acknowledged, got %d %s", rec.Code, rec.Body.String())
	}

	if recorder[metrics.WebhookApplied] != 1 || recorder[metrics.WebhookDuplicate] != 1 {
		t.Fatalf("unexpected outcomes %v", recorder)
	}
}

func TestPaymentWebhookRejects(t *testing.T) {
	body := `{"id":"evt_1","type":"payment.succeeded","email":"a@example.com","tier":"Premium"}`
	badUser := `{"id":"evt_1","type":"payment.succeeded","email":"a@example.com","user_id":"42","tier":"Premium"}`

	tests := []struct {
		name      string
		secret    string
		body      string
		signature string
		err       error
		want      int
	}{
		{name: "missing signature", secret: testSecret, body: body, want: http.StatusUnauthorized},
		{name: "wrong signature", secret: testSecret, body: body, signature: subscriptiondomain.Sign("other", []byte(body)), want: http.StatusUnauthorized},
		{name: "not configured", secret: "", body: body, signature: subscriptiondomain.Sign("", []byte(body)), want: http.StatusInternalServerError},
		{name: "malformed json", secret: testSecret, body: "{", signature: subscriptiondomain.Sign(testSecret, []byte("{")), want: http.StatusBadRequest},
		{name: "malformed user id", secret: testSecret, body: badUser, signature: subscriptiondomain.Sign(testSecret, []byte(badUser)), want: http.StatusBadRequest},
		{name: "invalid tier", secret: testSecret, body: body, signature: subscriptiondomain.Sign(testSecret, []byte(body)), err: fmt.Errorf("%w: %q", subscriptiondomain.ErrInvalidTier, "Gold"), want: http.StatusBadRequest},
		{name: "storage failure", secret: testSecret, body: body, signature: subscriptiondomain.Sign(testSecret, []byte(body)), err: errors.New("db down"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeSubscriptions{applied: map[string]bool{}, err: tt.err}
			h := New(service, tt.secret, nil, logger.Discard())

			rec := postWebhook(h, tt.body, tt.signature)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if len(service.applied) != 0 {
				t.Fatalf("expected nothing applied")
			}
		})
	}
}

func TestGetSubscription(t *testing.T) {
	service := &fakeSubscriptions{status: subscriptiondomain.Status{Tier: subscriptiondomain.TierOrganization, Subscribed: true}}
	h := New(service, testSecret, nil, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/subscription", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), middleware.User{ID: "u1", Email: "a@example.com"}))
	rec := httptest.NewRecorder()
	h.GetSubscription(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `{"subscribed":true,"subscription_tier":"Organization","subscription_end":null}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestCancelSubscriptionNotFound(t *testing.T) {
	service := &fakeSubscriptions{err: subscriptiondomain.ErrSubscriberNotFound}
	h := New(service, testSecret, nil, logger.Discard())

	req := httptest.NewRequest(http.MethodPost, "/api/subscription/cancel", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), middleware.User{ID: "u1"}))
	rec := httptest.NewRecorder()
	h.CancelSubscription(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
