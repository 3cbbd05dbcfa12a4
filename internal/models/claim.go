package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimRecord is one recorded redemption attempt for the one-time offer.
// Every identifier column is optional; the partial unique index on email is
// the only uniqueness constraint (Postgres treats NULLs as distinct, so
// email-less records never collide with each other).
//
// Records are immutable after creation except for OrderID, which transitions
// from NULL to a value exactly once during webhook reconciliation.
type ClaimRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       *string   `gorm:"size:320;uniqueIndex:ux_claim_records_email" json:"email,omitempty"`
	DeviceUUID  *string   `gorm:"size:64;index" json:"device_uuid,omitempty"`
	CookieID    *string   `gorm:"size:128;index" json:"cookie_id,omitempty"`
	Fingerprint *string   `gorm:"size:128;index" json:"fingerprint,omitempty"`
	IPAddress   *string   `gorm:"size:45;index" json:"ip_address,omitempty"`
	UserAgent   string    `gorm:"type:text" json:"user_agent,omitempty"`
	OrderID     *string   `gorm:"size:64;index" json:"order_id,omitempty"`
	ClaimedAt   time.Time `gorm:"not null;index" json:"claimed_at"`
	CreatedAt   time.Time `json:"created_at"`
}
