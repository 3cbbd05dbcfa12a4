package dto

import "github.com/puerhcraft/offerguard/internal/models"

// WebhookResponse acknowledges a verified delivery. Status carries the
// reconciliation outcome; Reason is set for skipped deliveries.
type WebhookResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

type WebhookEventListResponse struct {
	Events []models.WebhookEvent `json:"events"`
	Total  int64                 `json:"total"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
}
