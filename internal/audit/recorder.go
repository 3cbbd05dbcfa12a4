// Package audit persists webhook delivery outcomes for operational review.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/puerhcraft/offerguard/internal/models"
)

// Recorder writes one WebhookEvent row per verified delivery. Recording is
// best-effort: an audit failure is logged but never fails the webhook
// response, since the commerce platform would otherwise redeliver.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder builds a Recorder. A nil db yields a no-op recorder, used by
// tests and store-less local runs.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Entry describes one processed delivery.
type Entry struct {
	OrderID         string
	Email           string
	Mode            string
	Outcome         string
	Reason          string
	RawPayload      []byte
	ProcessingError string
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r.db == nil {
		return
	}

	payload := datatypes.JSON("{}")
	if json.Valid(entry.RawPayload) {
		payload = datatypes.JSON(entry.RawPayload)
	}

	event := models.WebhookEvent{
		OrderID:         entry.OrderID,
		Email:           entry.Email,
		Mode:            entry.Mode,
		Outcome:         entry.Outcome,
		Reason:          entry.Reason,
		Payload:         payload,
		ProcessingError: entry.ProcessingError,
		ReceivedAt:      time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		slog.Error("webhook audit write failed", "order_id", entry.OrderID, "error", err)
	}
}

// List returns recent webhook events, newest first.
func (r *Recorder) List(ctx context.Context, limit, offset int) ([]models.WebhookEvent, int64, error) {
	if r.db == nil {
		return nil, 0, nil
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.WebhookEvent
	err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, total, err
}
