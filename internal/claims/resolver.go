package claims

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/puerhcraft/offerguard/internal/models"
)

// Status is the outcome of a redemption check.
type Status string

const (
	// StatusNew means the requester had no prior claim and one was recorded.
	StatusNew Status = "new"
	// StatusClaimed means some identifier already belongs to a recorded claim.
	StatusClaimed Status = "claimed"
)

// Resolution carries the resolver's decision; Record is set only for StatusNew.
type Resolution struct {
	Status Status
	Record *models.ClaimRecord
}

// Resolver decides new-vs-claimed for inbound redemption requests. The
// initial FindAny is only a short-circuit; the store's uniqueness constraint
// is what actually guarantees at-most-one claim per email under concurrent
// double-submits.
type Resolver struct {
	store   ClaimStore
	matchIP bool
	now     func() time.Time
}

// NewResolver builds a Resolver. matchIP controls whether a shared IP
// address alone marks a requester as already claimed; disabling it avoids
// over-blocking users behind NAT.
func NewResolver(store ClaimStore, matchIP bool) *Resolver {
	return &Resolver{store: store, matchIP: matchIP, now: time.Now}
}

// Resolve returns StatusClaimed when any identifier matches an existing
// record, otherwise inserts a new record and returns StatusNew. Safe to call
// concurrently for the same identity: the losing side of an insert race is
// reported as claimed.
func (r *Resolver) Resolve(ctx context.Context, ids IdentitySet) (Resolution, error) {
	ids = ids.Normalized()
	if ids.IsEmpty() {
		return Resolution{}, ErrInvalidIdentity
	}

	match := ids
	if !r.matchIP {
		match = match.WithoutIP()
	}

	if !match.IsEmpty() {
		existing, err := r.store.FindAny(ctx, match)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve claim: %w", err)
		}
		if existing != nil {
			return Resolution{Status: StatusClaimed}, nil
		}
	}

	rec := NewRecord(ids, r.now())
	err := r.store.Insert(ctx, rec)
	if err == nil {
		return Resolution{Status: StatusNew, Record: rec}, nil
	}
	if !errors.Is(err, ErrConflict) {
		return Resolution{}, fmt.Errorf("resolve claim: %w", err)
	}

	// A concurrent request won the insert race. Re-check once so the caller
	// sees the winner, but deny regardless: a conflicting record existing at
	// all means this identity has already been accepted.
	if _, err := r.store.FindAny(ctx, match); err != nil {
		slog.Warn("post-conflict lookup failed", "error", err)
	}
	return Resolution{Status: StatusClaimed}, nil
}
