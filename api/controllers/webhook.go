package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/oscodesolution-devops/gift-ginnie-server/api/responses"
	paymentsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/payments"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/config"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/redis"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	webhookEventIDHeader   = "X-Razorpay-Event-Id"

	maxWebhookBodyBytes = 1 << 20
)

type webhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

// PaymentWebhook ingests gateway payment events. Signature rejection is a
// hard 400; once the signature checks out the event is always acknowledged
// with 200. A processing failure is logged and releases the dedupe marker so
// the gateway's periodic retry can reconcile the event later.
func PaymentWebhook(svc paymentsvc.Service, verifier webhookVerifier, events redis.EventStore, cfg config.RazorpayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || verifier == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment webhook unavailable"))
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable webhook body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(webhookSignatureHeader))
		if signature == "" || !verifier.VerifyWebhookSignature(body, signature) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch"))
			return
		}

		eventID := strings.TrimSpace(r.Header.Get(webhookEventIDHeader))
		var dedupeKey string
		if eventID != "" && events != nil {
			dedupeKey = events.WebhookEventKey(eventID)
			claimed, err := events.SetNX(r.Context(), dedupeKey, "1", cfg.WebhookEventTTL)
			if err != nil {
				// dedupe store outage: reconciliation is idempotent, so
				// process without the marker rather than bounce the event
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "event_id", eventID), "webhook.dedupe_unavailable")
				}
				dedupeKey = ""
			} else if !claimed {
				if logg != nil {
					logg.Info(logg.WithField(r.Context(), "event_id", eventID), "webhook.duplicate")
				}
				responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
				return
			}
		}

		event, err := paymentsvc.ParseWebhookEvent(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandleWebhook(r.Context(), event); err != nil {
			if logg != nil {
				logg.Error(logg.WithField(r.Context(), "event_id", eventID), "webhook.reconcile_failed", err)
			}
			if dedupeKey != "" && events != nil {
				if delErr := events.Del(r.Context(), dedupeKey); delErr != nil && logg != nil {
					logg.Error(r.Context(), "webhook.dedupe_release_failed", delErr)
				}
			}
			// ack anyway: the gateway redelivers and the released marker
			// lets the retry claim the event again
			responses.WriteSuccess(w, map[string]string{"status": "received"})
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
