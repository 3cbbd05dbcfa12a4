package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEvent is an audit row for every order webhook that passed
// verification, keeping the raw payload and the reconciliation outcome for
// later debugging of redelivery disputes.
type WebhookEvent struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         string         `gorm:"size:64;index" json:"order_id"`
	Email           string         `gorm:"size:320;index" json:"email"`
	Mode            string         `gorm:"size:20;not null" json:"mode"`
	Outcome         string         `gorm:"size:20;index" json:"outcome"`
	Reason          string         `gorm:"size:100" json:"reason,omitempty"`
	Payload         datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"payload"`
	ProcessingError string         `gorm:"type:text" json:"processing_error,omitempty"`
	ReceivedAt      time.Time      `gorm:"not null;index" json:"received_at"`
	CreatedAt       time.Time      `json:"created_at"`
}
