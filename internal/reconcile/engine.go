// Package reconcile merges verified order events into claim records.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/puerhcraft/offerguard/internal/claims"
	"github.com/puerhcraft/offerguard/internal/webhook"
)

// ErrMissingEmail is returned when an order carries no customer email; email
// is the reconciliation key and nothing can be matched without it.
var ErrMissingEmail = errors.New("order has no customer email")

// Status is the outcome of one reconciliation.
type Status string

const (
	// StatusMerged means the order id was attached to an existing claim.
	StatusMerged Status = "merged"
	// StatusDuplicate means the claim was already reconciled.
	StatusDuplicate Status = "duplicate"
	// StatusCreated means no claim existed and a webhook-first record was
	// created with the order id already set.
	StatusCreated Status = "created"
	// StatusSkipped means the order does not concern the offer.
	StatusSkipped Status = "skipped"
)

// Result carries the reconciliation outcome. Reason is set for StatusSkipped.
type Result struct {
	Status Status
	Reason string
}

// Eligibility decides whether an order redeems the offer at all. It is
// configuration, not domain knowledge: the engine never inspects line items
// itself.
type Eligibility func(order *webhook.VerifiedOrder) bool

// KeywordEligibility matches when any line item title contains one of the
// configured keywords (case-insensitive). With no keywords configured, any
// zero-priced line item qualifies instead.
func KeywordEligibility(keywords []string) Eligibility {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}

	return func(order *webhook.VerifiedOrder) bool {
		for _, li := range order.LineItems {
			if len(lowered) == 0 {
				if isZeroPrice(li.Price) {
					return true
				}
				continue
			}
			title := strings.ToLower(li.Title)
			for _, kw := range lowered {
				if strings.Contains(title, kw) {
					return true
				}
			}
		}
		return false
	}
}

func isZeroPrice(price string) bool {
	price = strings.TrimSpace(price)
	if price == "" {
		return false
	}
	for _, r := range price {
		if r != '0' && r != '.' {
			return false
		}
	}
	return true
}

// Engine merges verified orders into the claim store. It shares the store
// (and its atomicity guarantees) with the redemption path, so a webhook
// delivery racing a redemption check for the same email cannot produce two
// records.
type Engine struct {
	store    claims.ClaimStore
	eligible Eligibility
	now      func() time.Time
}

func NewEngine(store claims.ClaimStore, eligible Eligibility) *Engine {
	return &Engine{store: store, eligible: eligible, now: time.Now}
}

// Reconcile applies the merge rules in order: eligibility gate, lookup by
// email, attach / duplicate / create. Calling it again with the same order is
// idempotent; a conflicting earlier reconciliation is reported as duplicate
// with a warning and never overwritten.
func (e *Engine) Reconcile(ctx context.Context, order *webhook.VerifiedOrder) (Result, error) {
	if order.Email == "" {
		return Result{}, ErrMissingEmail
	}
	if !e.eligible(order) {
		return Result{Status: StatusSkipped, Reason: "not_eligible"}, nil
	}
	if order.OrderID == "" {
		return Result{Status: StatusSkipped, Reason: "missing_order_id"}, nil
	}

	rec, err := e.store.FindByEmail(ctx, order.Email)
	if err != nil {
		return Result{}, fmt.Errorf("reconcile order %s: %w", order.OrderID, err)
	}

	if rec == nil {
		return e.createFromOrder(ctx, order)
	}

	if rec.OrderID != nil {
		if *rec.OrderID == order.OrderID {
			return Result{Status: StatusDuplicate}, nil
		}
		slog.Warn("claim already reconciled with a different order",
			"record_id", rec.ID, "existing_order_id", *rec.OrderID, "order_id", order.OrderID)
		return Result{Status: StatusDuplicate}, nil
	}

	err = e.store.AttachOrder(ctx, rec.ID, order.OrderID)
	switch {
	case err == nil:
		return Result{Status: StatusMerged}, nil
	case errors.Is(err, claims.ErrAlreadyReconciled):
		// Lost a race against another delivery carrying a different order.
		slog.Warn("concurrent reconciliation with a different order",
			"record_id", rec.ID, "order_id", order.OrderID)
		return Result{Status: StatusDuplicate}, nil
	default:
		return Result{}, fmt.Errorf("reconcile order %s: %w", order.OrderID, err)
	}
}

// createFromOrder handles the webhook-first case: the purchase happened
// without a prior redemption check, so a record is created with order_id
// already set from whatever identifiers the order carried.
func (e *Engine) createFromOrder(ctx context.Context, order *webhook.VerifiedOrder) (Result, error) {
	ids := claims.IdentitySet{
		Email:       order.Email,
		DeviceUUID:  order.DeviceUUID,
		CookieID:    order.CookieID,
		Fingerprint: order.Fingerprint,
		IPAddress:   order.IPAddress,
		UserAgent:   order.UserAgent,
	}.Normalized()

	rec := claims.NewRecord(ids, e.now())
	rec.OrderID = &order.OrderID

	err := e.store.Insert(ctx, rec)
	if err == nil {
		return Result{Status: StatusCreated}, nil
	}
	if !errors.Is(err, claims.ErrConflict) {
		return Result{}, fmt.Errorf("reconcile order %s: %w", order.OrderID, err)
	}

	// A concurrent insert for the same email won; re-apply the attach rules
	// against the winner once.
	winner, ferr := e.store.FindByEmail(ctx, order.Email)
	if ferr != nil || winner == nil {
		slog.Warn("insert conflict but no record visible by email",
			"order_id", order.OrderID, "error", ferr)
		return Result{Status: StatusDuplicate}, nil
	}
	if winner.OrderID != nil {
		if *winner.OrderID != order.OrderID {
			slog.Warn("claim already reconciled with a different order",
				"record_id", winner.ID, "existing_order_id", *winner.OrderID, "order_id", order.OrderID)
		}
		return Result{Status: StatusDuplicate}, nil
	}
	if err := e.store.AttachOrder(ctx, winner.ID, order.OrderID); err != nil {
		if errors.Is(err, claims.ErrAlreadyReconciled) {
			return Result{Status: StatusDuplicate}, nil
		}
		return Result{}, fmt.Errorf("reconcile order %s: %w", order.OrderID, err)
	}
	return Result{Status: StatusMerged}, nil
}
