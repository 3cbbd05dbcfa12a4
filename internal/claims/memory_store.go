package claims

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/puerhcraft/offerguard/internal/models"
)

// MemoryStore is an in-process ClaimStore with the same contract as
// GormStore. It backs the test suites and local runs without Postgres.
type MemoryStore struct {
	mu      sync.Mutex
	records []*models.ClaimRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) FindAny(_ context.Context, ids IdentitySet) (*models.ClaimRecord, error) {
	ids = ids.Normalized()
	if ids.IsEmpty() {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*models.ClaimRecord
	for _, rec := range s.records {
		if matchField(rec.Email, ids.Email) ||
			matchField(rec.DeviceUUID, ids.DeviceUUID) ||
			matchField(rec.CookieID, ids.CookieID) ||
			matchField(rec.Fingerprint, ids.Fingerprint) ||
			matchField(rec.IPAddress, ids.IPAddress) {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	// Deterministic representative: most recent claim first.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ClaimedAt.After(matches[j].ClaimedAt)
	})
	return copyRecord(matches[0]), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.ClaimRecord, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if matchField(rec.Email, email) {
			return copyRecord(rec), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Insert(_ context.Context, rec *models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Email != nil {
		for _, existing := range s.records {
			if matchField(existing.Email, *rec.Email) {
				return ErrConflict
			}
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.records = append(s.records, copyRecord(rec))
	return nil
}

func (s *MemoryStore) AttachOrder(_ context.Context, id uuid.UUID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID != id {
			continue
		}
		if rec.OrderID == nil {
			v := orderID
			rec.OrderID = &v
			return nil
		}
		if *rec.OrderID == orderID {
			return nil
		}
		return ErrAlreadyReconciled
	}
	return ErrNotFound
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// All returns a snapshot of every stored record, insertion order.
func (s *MemoryStore) All() []*models.ClaimRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.ClaimRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = copyRecord(rec)
	}
	return out
}

func matchField(stored *string, supplied string) bool {
	return stored != nil && supplied != "" && *stored == supplied
}

func copyRecord(rec *models.ClaimRecord) *models.ClaimRecord {
	dup := *rec
	return &dup
}
