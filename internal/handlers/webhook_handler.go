package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/puerhcraft/offerguard/internal/audit"
	"github.com/puerhcraft/offerguard/internal/dto"
	"github.com/puerhcraft/offerguard/internal/metrics"
	"github.com/puerhcraft/offerguard/internal/reconcile"
	"github.com/puerhcraft/offerguard/internal/webhook"
)

type WebhookHandler struct {
	verifier *webhook.Verifier
	engine   *reconcile.Engine
	audit    *audit.Recorder
	metrics  *metrics.Collector
}

func NewWebhookHandler(verifier *webhook.Verifier, engine *reconcile.Engine, recorder *audit.Recorder, collector *metrics.Collector) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, engine: engine, audit: recorder, metrics: collector}
}

// HandleOrder handles POST /api/webhooks/orders. Verification runs over the
// exact raw body; a failed check takes no store action. Semantically
// inapplicable orders (no email, not the offer) are acknowledged with 200 so
// the platform stops redelivering them.
func (h *WebhookHandler) HandleOrder(c *fiber.Ctx) error {
	raw := c.Body()

	order, err := h.verifier.Verify(raw,
		c.Get(webhook.HeaderHMACSignature),
		c.Get(webhook.HeaderSharedSecret))
	if err != nil {
		if errors.Is(err, webhook.ErrUnauthorized) {
			h.metrics.RecordWebhookRejected()
			slog.Warn("webhook rejected", "action", "order_webhook")
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if order.Degraded {
		slog.Warn("webhook verified in degraded shared-secret mode", "order_id", order.OrderID)
	}

	result, err := h.engine.Reconcile(c.Context(), order)
	if err != nil {
		if errors.Is(err, reconcile.ErrMissingEmail) {
			result = reconcile.Result{Status: reconcile.StatusSkipped, Reason: "missing_email"}
		} else {
			slog.Error("webhook reconciliation failed",
				"action", "order_webhook", "order_id", order.OrderID, "error", err.Error())
			h.audit.Record(c.Context(), audit.Entry{
				OrderID:         order.OrderID,
				Email:           order.Email,
				Mode:            order.Mode,
				Outcome:         "error",
				RawPayload:      raw,
				ProcessingError: err.Error(),
			})
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process webhook event",
			})
		}
	}

	h.audit.Record(c.Context(), audit.Entry{
		OrderID:    order.OrderID,
		Email:      order.Email,
		Mode:       order.Mode,
		Outcome:    string(result.Status),
		Reason:     result.Reason,
		RawPayload: raw,
	})
	h.metrics.RecordWebhookDelivery(string(result.Status))
	slog.Info("webhook processed", "order_id", order.OrderID, "outcome", result.Status, "reason", result.Reason)

	return c.JSON(dto.WebhookResponse{
		Received: true,
		Status:   string(result.Status),
		Reason:   result.Reason,
	})
}
