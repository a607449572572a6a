package billing

import (
	"errors"
	"io"
	"net/http"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
	"finance-app-go/internal/metrics"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
)

const maxWebhookBody = 1 << 20

type webhookResponse struct {
	Received bool `json:"received"`
	Applied  bool `json:"applied"`
}

// PaymentWebhook is the only writer of subscriber rows besides cancel. The
// raw body must carry a valid HMAC signature.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		h.log.Error("webhooks.payment: secret not configured")
		commonhandler.WriteError(w, http.StatusInternalServerError, "webhook_not_configured", "webhook not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		h.metrics.Webhook(metrics.WebhookInvalid)
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_body", "cannot read body")
		return
	}
	if len(body) > maxWebhookBody {
		h.metrics.Webhook(metrics.WebhookInvalid)
		commonhandler.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "body too large")
		return
	}

	if !subscriptiondomain.VerifySignature(h.webhookSecret, body, r.Header.Get(subscriptiondomain.SignatureHeader)) {
		h.metrics.Webhook(metrics.WebhookRejected)
		h.log.BusinessError("webhooks.payment: invalid signature", subscriptiondomain.ErrInvalidSignature, "remote_addr", r.RemoteAddr)
		commonhandler.WriteError(w, http.StatusUnauthorized, "invalid_signature", "invalid signature")
		return
	}

	event, err := subscriptiondomain.ParseEvent(body)
	if err != nil {
		h.metrics.Webhook(metrics.WebhookInvalid)
		h.log.BusinessError("webhooks.payment: invalid event", err)
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_event", "invalid event")
		return
	}

	applied, err := h.Subscriptions.ApplyPaymentEvent(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, subscriptiondomain.ErrInvalidEvent),
			errors.Is(err, subscriptiondomain.ErrInvalidTier),
			errors.Is(err, subscriptiondomain.ErrUnknownEventType):
			h.metrics.Webhook(metrics.WebhookInvalid)
			h.log.BusinessError("webhooks.payment: event rejected", err, "event_id", event.ID, "type", event.Type)
			commonhandler.WriteError(w, http.StatusBadRequest, "invalid_event", err.Error())
		default:
			h.metrics.Webhook(metrics.WebhookFailed)
			h.log.InternalError("webhooks.payment: apply failed", err, "event_id", event.ID)
			commonhandler.WriteInternal(w)
		}
		return
	}

	if applied {
		h.metrics.Webhook(metrics.WebhookApplied)
		h.log.Info("webhooks.payment: applied", "event_id", event.ID, "type", event.Type, "tier", event.Tier)
	} else {
		h.metrics.Webhook(metrics.WebhookDuplicate)
		h.log.Info("webhooks.payment: duplicate ignored", "event_id", event.ID)
	}
	commonhandler.WriteJSON(w, http.StatusOK, webhookResponse{Received: true, Applied: applied})
}
