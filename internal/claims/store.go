package claims

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/puerhcraft/offerguard/internal/models"
)

var (
	// ErrInvalidIdentity is returned when a request carries no usable identifier.
	ErrInvalidIdentity = errors.New("no usable identifier supplied")
	// ErrConflict is returned by Insert when the email uniqueness constraint
	// rejected a concurrent duplicate.
	ErrConflict = errors.New("claim record already exists for this email")
	// ErrNotFound is returned by AttachOrder for an unknown record id.
	ErrNotFound = errors.New("claim record not found")
	// ErrAlreadyReconciled is returned by AttachOrder when the record already
	// carries a different order id.
	ErrAlreadyReconciled = errors.New("claim record already reconciled with a different order")
)

// ClaimStore is the persistence contract the redemption and reconciliation
// paths share. Implementations must make Insert and AttachOrder atomic: the
// email uniqueness constraint and the order-id compare-and-set are the sole
// sources of truth under concurrent requests, never an application-level
// read-then-write.
type ClaimStore interface {
	// FindAny returns a record whose stored identifiers match ANY non-empty
	// field of the supplied set (logical OR across fields, exact equality,
	// case-normalized email). At most one representative match is returned,
	// most recent claimed_at first; nil when nothing matches.
	FindAny(ctx context.Context, ids IdentitySet) (*models.ClaimRecord, error)

	// FindByEmail returns the record with the exact normalized email, or nil.
	FindByEmail(ctx context.Context, email string) (*models.ClaimRecord, error)

	// Insert persists a new record. Returns ErrConflict when a record with
	// the same non-empty email already exists.
	Insert(ctx context.Context, rec *models.ClaimRecord) error

	// AttachOrder sets order_id once. Attaching the same value again is a
	// no-op success so webhook redeliveries stay idempotent; a differing
	// value returns ErrAlreadyReconciled and leaves the record untouched.
	AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error
}

// NewRecord builds a ClaimRecord from a normalized identity set. Empty
// fields stay NULL so they never participate in matching or uniqueness.
func NewRecord(ids IdentitySet, now time.Time) *models.ClaimRecord {
	return &models.ClaimRecord{
		Email:       optional(ids.Email),
		DeviceUUID:  optional(ids.DeviceUUID),
		CookieID:    optional(ids.CookieID),
		Fingerprint: optional(ids.Fingerprint),
		IPAddress:   optional(ids.IPAddress),
		UserAgent:   ids.UserAgent,
		ClaimedAt:   now.UTC(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
