package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puerhcraft/offerguard/internal/claims"
	"github.com/puerhcraft/offerguard/internal/dto"
	"github.com/puerhcraft/offerguard/internal/metrics"
)

func newClaimTestApp(store claims.ClaimStore) *fiber.App {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	handler := NewClaimHandler(claims.NewResolver(store, true), collector)

	app := fiber.New()
	app.Post("/api/claims/check", handler.Check)
	return app
}

func postClaim(t *testing.T, app *fiber.App, body string, headers map[string]string) (int, dto.ClaimCheckResponse) {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/claims/check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.ClaimCheckResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestClaimCheckNewThenClaimed(t *testing.T) {
	store := claims.NewMemoryStore()
	app := newClaimTestApp(store)

	status, out := postClaim(t, app, `{"email":"a@x.com","fingerprint":"fp-1"}`, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "new", out.Status)

	status, out = postClaim(t, app, `{"email":"a@x.com"}`, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "claimed", out.Status)

	// Matching on a weak identifier alone also denies.
	status, out = postClaim(t, app, `{"fingerprint":"fp-1"}`, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "claimed", out.Status)

	assert.Equal(t, 1, store.Len())
}

func TestClaimCheckDerivesIPAndUserAgent(t *testing.T) {
	store := claims.NewMemoryStore()
	app := newClaimTestApp(store)

	status, out := postClaim(t, app, `{"email":"a@x.com"}`, map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.0.0.2",
		"User-Agent":      "Mozilla/5.0",
	})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "new", out.Status)

	rec := store.All()[0]
	require.NotNil(t, rec.IPAddress)
	assert.Equal(t, "203.0.113.7", *rec.IPAddress)
	assert.Equal(t, "Mozilla/5.0", rec.UserAgent)
}

func TestClaimCheckEmptyIdentity(t *testing.T) {
	app := newClaimTestApp(claims.NewMemoryStore())

	// An empty body still resolves: the transport peer address is derived
	// server-side and counts as an identifier.
	status, out := postClaim(t, app, `{}`, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "new", out.Status)
}

func TestClaimCheckInvalidBody(t *testing.T) {
	app := newClaimTestApp(claims.NewMemoryStore())
	status, _ := postClaim(t, app, `{not json`, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
