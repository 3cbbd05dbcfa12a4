package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/puerhcraft/offerguard/internal/models"
)

// GormStore is the Postgres-backed ClaimStore. Insert relies on the partial
// unique index over claim_records.email (translated to ErrConflict via
// gorm.ErrDuplicatedKey), and AttachOrder on a conditional UPDATE, so both
// stay atomic under concurrent requests.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindAny(ctx context.Context, ids IdentitySet) (*models.ClaimRecord, error) {
	ids = ids.Normalized()
	if ids.IsEmpty() {
		return nil, nil
	}

	conds := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	for _, f := range []struct {
		column string
		value  string
	}{
		{"email", ids.Email},
		{"device_uuid", ids.DeviceUUID},
		{"cookie_id", ids.CookieID},
		{"fingerprint", ids.Fingerprint},
		{"ip_address", ids.IPAddress},
	} {
		if f.value != "" {
			conds = append(conds, f.column+" = ?")
			args = append(args, f.value)
		}
	}

	var rec models.ClaimRecord
	err := s.db.WithContext(ctx).
		Where(strings.Join(conds, " OR "), args...).
		Order("claimed_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find claim by identifiers: %w", err)
	}
	return &rec, nil
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*models.ClaimRecord, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	var rec models.ClaimRecord
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find claim by email: %w", err)
	}
	return &rec, nil
}

func (s *GormStore) Insert(ctx context.Context, rec *models.ClaimRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("insert claim record: %w", err)
	}
	return nil
}

func (s *GormStore) AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	// Single conditional UPDATE: only an unreconciled record transitions.
	res := s.db.WithContext(ctx).
		Model(&models.ClaimRecord{}).
		Where("id = ? AND order_id IS NULL", id).
		Update("order_id", orderID)
	if res.Error != nil {
		return fmt.Errorf("attach order: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Nothing updated: missing record, idempotent retry, or a conflicting
	// earlier reconciliation.
	var rec models.ClaimRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("attach order: %w", err)
	}
	if rec.OrderID != nil && *rec.OrderID == orderID {
		return nil
	}
	return ErrAlreadyReconciled
}
