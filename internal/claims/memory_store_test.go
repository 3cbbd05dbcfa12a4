package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindAnyPicksMostRecent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older := NewRecord(IdentitySet{Email: "a@x.com", IPAddress: "10.0.0.1"},
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := NewRecord(IdentitySet{Email: "b@x.com", IPAddress: "10.0.0.1"},
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, older))
	require.NoError(t, store.Insert(ctx, newer))

	got, err := store.FindAny(ctx, IdentitySet{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b@x.com", *got.Email)
}

func TestMemoryStoreFindAnyIgnoresEmptyFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// A record with no email must never match an email-less lookup.
	rec := NewRecord(IdentitySet{DeviceUUID: "dev-1"}, time.Now())
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.FindAny(ctx, IdentitySet{Email: "a@x.com", Fingerprint: "fp-1"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreInsertConflictOnEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, NewRecord(IdentitySet{Email: "a@x.com"}, time.Now())))
	err := store.Insert(ctx, NewRecord(IdentitySet{Email: "a@x.com"}, time.Now()))
	assert.ErrorIs(t, err, ErrConflict)

	// Email-less records never conflict with each other.
	require.NoError(t, store.Insert(ctx, NewRecord(IdentitySet{DeviceUUID: "d1"}, time.Now())))
	require.NoError(t, store.Insert(ctx, NewRecord(IdentitySet{DeviceUUID: "d2"}, time.Now())))
}

func TestMemoryStoreAttachOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := NewRecord(IdentitySet{Email: "a@x.com"}, time.Now())
	require.NoError(t, store.Insert(ctx, rec))

	require.NoError(t, store.AttachOrder(ctx, rec.ID, "1001"))

	// Same value again is a no-op success.
	require.NoError(t, store.AttachOrder(ctx, rec.ID, "1001"))

	// A differing value is rejected and the stored value survives.
	err := store.AttachOrder(ctx, rec.ID, "2002")
	assert.ErrorIs(t, err, ErrAlreadyReconciled)

	got, err := store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, "1001", *got.OrderID)
}

func TestMemoryStoreAttachOrderNotFound(t *testing.T) {
	store := NewMemoryStore()
	err := store.AttachOrder(context.Background(), uuid.New(), "1001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFindByEmailNormalizes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, NewRecord(IdentitySet{Email: "a@x.com"}.Normalized(), time.Now())))

	got, err := store.FindByEmail(ctx, "  A@X.COM ")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = store.FindByEmail(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}
