package billing

import (
	"errors"
	"net/http"
	"time"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
)

type statusResponse struct {
	Subscribed       bool       `json:"subscribed"`
	SubscriptionTier string     `json:"subscription_tier"`
	SubscriptionEnd  *time.Time `json:"subscription_end"`
}

func toStatusResponse(status subscriptiondomain.Status) statusResponse {
	return statusResponse{
		Subscribed:       status.Subscribed,
		SubscriptionTier: status.Tier,
		SubscriptionEnd:  status.SubscriptionEnd,
	}
}

func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}

	status, err := h.Subscriptions.GetStatus(r.Context(), user.ID, user.Email)
	if err != nil {
		h.log.InternalError("subscription.get: get status failed", err, "user_id", user.ID)
		commonhandler.WriteInternal(w)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}

// CheckSubscription re-reads storage, bypassing the status cache.
func (h *Handlers) CheckSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}

	status, err := h.Subscriptions.CheckStatus(r.Context(), user.ID, user.Email)
	if err != nil {
		h.log.InternalError("subscription.check: check status failed", err, "user_id", user.ID)
		commonhandler.WriteInternal(w)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}

func (h *Handlers) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}

	status, err := h.Subscriptions.Cancel(r.Context(), user.ID, user.Email)
	if err != nil {
		switch {
		case errors.Is(err, subscriptiondomain.ErrSubscriberNotFound):
			h.log.BusinessError("subscription.cancel: subscriber not found", err, "user_id", user.ID)
			commonhandler.WriteError(w, http.StatusNotFound, "subscriber_not_found", "no subscription to cancel")
		case errors.Is(err, subscriptiondomain.ErrIdentityRequired):
			h.log.BusinessError("subscription.cancel: identity required", err, "user_id", user.ID)
			commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "user id or email is required")
		default:
			h.log.InternalError("subscription.cancel: cancel failed", err, "user_id", user.ID)
			commonhandler.WriteInternal(w)
		}
		return
	}

	h.log.Info("subscription.cancel: cancelled", "user_id", user.ID)
	commonhandler.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}
