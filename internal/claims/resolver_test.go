package claims

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puerhcraft/offerguard/internal/models"
)

func TestResolveRejectsEmptyIdentity(t *testing.T) {
	r := NewResolver(NewMemoryStore(), true)

	_, err := r.Resolve(context.Background(), IdentitySet{UserAgent: "Mozilla/5.0"})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestResolveNewRecordsAllFields(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(store, true)

	res, err := r.Resolve(context.Background(), IdentitySet{
		Email:       "Tea@Example.com",
		DeviceUUID:  "dev-1",
		CookieID:    "ck-1",
		Fingerprint: "fp-1",
		IPAddress:   "203.0.113.7",
		UserAgent:   "Mozilla/5.0",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, res.Status)
	require.NotNil(t, res.Record)

	require.Equal(t, 1, store.Len())
	rec := store.All()[0]
	require.NotNil(t, rec.Email)
	assert.Equal(t, "tea@example.com", *rec.Email)
	assert.Equal(t, "dev-1", *rec.DeviceUUID)
	assert.Equal(t, "ck-1", *rec.CookieID)
	assert.Equal(t, "fp-1", *rec.Fingerprint)
	assert.Equal(t, "203.0.113.7", *rec.IPAddress)
	assert.Equal(t, "Mozilla/5.0", rec.UserAgent)
	assert.Nil(t, rec.OrderID)
	assert.False(t, rec.ClaimedAt.IsZero())
}

func TestResolveSecondSubmissionClaimed(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(store, true)
	ctx := context.Background()

	first, err := r.Resolve(ctx, IdentitySet{Email: "a@x.com", DeviceUUID: "dev-1"})
	require.NoError(t, err)
	require.Equal(t, StatusNew, first.Status)

	// Any single overlapping identifier is enough to deny.
	for _, ids := range []IdentitySet{
		{Email: "a@x.com"},
		{Email: "A@X.com "},
		{DeviceUUID: "dev-1"},
		{Email: "other@x.com", DeviceUUID: "dev-1"},
	} {
		res, err := r.Resolve(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, StatusClaimed, res.Status, "identity %+v", ids)
	}

	assert.Equal(t, 1, store.Len())
}

func TestResolveIPMatchingDisabled(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(store, false)
	ctx := context.Background()

	first, err := r.Resolve(ctx, IdentitySet{Email: "a@x.com", IPAddress: "198.51.100.9"})
	require.NoError(t, err)
	require.Equal(t, StatusNew, first.Status)

	// Same NAT address, different person: must not be blocked.
	res, err := r.Resolve(ctx, IdentitySet{Email: "b@x.com", IPAddress: "198.51.100.9"})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, res.Status)
	assert.Equal(t, 2, store.Len())

	// The IP is still recorded on both.
	for _, rec := range store.All() {
		require.NotNil(t, rec.IPAddress)
		assert.Equal(t, "198.51.100.9", *rec.IPAddress)
	}
}

func TestResolveIPMatchingEnabled(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(store, true)
	ctx := context.Background()

	_, err := r.Resolve(ctx, IdentitySet{Email: "a@x.com", IPAddress: "198.51.100.9"})
	require.NoError(t, err)

	res, err := r.Resolve(ctx, IdentitySet{Email: "b@x.com", IPAddress: "198.51.100.9"})
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, res.Status)
	assert.Equal(t, 1, store.Len())
}

// conflictStore simulates losing an insert race on a field the lookup cannot
// see: FindAny never matches, yet the store's uniqueness constraint fires.
type conflictStore struct {
	*MemoryStore
	findAnyCalls int
}

func (s *conflictStore) FindAny(ctx context.Context, ids IdentitySet) (*models.ClaimRecord, error) {
	s.findAnyCalls++
	return nil, nil
}

func (s *conflictStore) Insert(ctx context.Context, rec *models.ClaimRecord) error {
	return ErrConflict
}

func TestResolveConflictAlwaysClaimed(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore()}
	r := NewResolver(store, true)

	res, err := r.Resolve(context.Background(), IdentitySet{DeviceUUID: "dev-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, res.Status)
	// Initial short-circuit plus exactly one post-conflict re-check.
	assert.Equal(t, 2, store.findAnyCalls)
}

func TestResolveConcurrentSameEmail(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(store, true)

	const n = 32
	results := make([]Status, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := r.Resolve(context.Background(), IdentitySet{Email: "race@x.com"})
			if !assert.NoError(t, err) {
				return
			}
			results[i] = res.Status
		}(i)
	}
	close(start)
	wg.Wait()

	var newCount int
	for _, s := range results {
		if s == StatusNew {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount, "exactly one winner")
	assert.Equal(t, 1, store.Len(), "uniqueness invariant holds")
}

func TestNewRecordTimestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	rec := NewRecord(IdentitySet{Email: "a@x.com"}, now)
	assert.Equal(t, now.UTC(), rec.ClaimedAt)
}
