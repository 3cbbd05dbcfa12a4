// Package webhook authenticates and parses order webhooks from the commerce
// platform. Verification always runs over the exact raw request body; the
// payload is never re-serialized before the signature check.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/puerhcraft/offerguard/internal/claims"
)

// Header names the storefront platform sends.
const (
	HeaderHMACSignature = "X-Shopify-Hmac-Sha256"
	HeaderSharedSecret  = "X-Webhook-Secret"
)

// Verification modes.
const (
	ModeHMAC         = "hmac"
	ModeSharedSecret = "shared_secret"
)

// ErrUnauthorized is returned when a delivery carries no valid credential.
var ErrUnauthorized = errors.New("webhook verification failed")

// VerifiedOrder is a parsed order event that passed verification.
type VerifiedOrder struct {
	OrderID   string
	Email     string
	LineItems []LineItem

	// Out-of-band identifiers the storefront embedded as order metadata.
	DeviceUUID  string
	CookieID    string
	Fingerprint string

	// Best-effort request context captured at checkout.
	IPAddress string
	UserAgent string

	// Mode records which credential authenticated the delivery. Degraded is
	// set for the static shared-secret mode, which proves possession of a
	// header value but not integrity of the body.
	Mode     string
	Degraded bool
}

// LineItem is one purchased product line.
type LineItem struct {
	Title    string
	Price    string
	Quantity int
}

// Verifier authenticates raw webhook deliveries. HMAC verification is
// preferred whenever its secret is configured; the static shared-secret
// header is a degraded fallback for platforms that cannot sign payloads.
type Verifier struct {
	hmacSecret   []byte
	sharedSecret []byte
}

func NewVerifier(hmacSecret, sharedSecret string) *Verifier {
	v := &Verifier{}
	if hmacSecret != "" {
		v.hmacSecret = []byte(hmacSecret)
	}
	if sharedSecret != "" {
		v.sharedSecret = []byte(sharedSecret)
	}
	return v
}

// Verify authenticates the raw body against whichever credential the request
// carries and parses it into a VerifiedOrder. Returns ErrUnauthorized on a
// missing header, missing secret, or mismatch; no distinction is leaked to
// the caller.
func (v *Verifier) Verify(rawBody []byte, hmacHeader, secretHeader string) (*VerifiedOrder, error) {
	mode, degraded, err := v.authenticate(rawBody, hmacHeader, secretHeader)
	if err != nil {
		return nil, err
	}

	order, err := parseOrder(rawBody)
	if err != nil {
		return nil, err
	}
	order.Mode = mode
	order.Degraded = degraded
	return order, nil
}

func (v *Verifier) authenticate(rawBody []byte, hmacHeader, secretHeader string) (mode string, degraded bool, err error) {
	if len(v.hmacSecret) > 0 && hmacHeader != "" {
		mac := hmac.New(sha256.New, v.hmacSecret)
		mac.Write(rawBody)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(hmacHeader)) == 1 {
			return ModeHMAC, false, nil
		}
		return "", false, ErrUnauthorized
	}

	if len(v.sharedSecret) > 0 && secretHeader != "" {
		if subtle.ConstantTimeCompare(v.sharedSecret, []byte(secretHeader)) == 1 {
			return ModeSharedSecret, true, nil
		}
	}
	return "", false, ErrUnauthorized
}

// orderPayload mirrors the subset of the platform's order JSON the engine
// consumes.
type orderPayload struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	LineItems []struct {
		Title    string `json:"title"`
		Price    string `json:"price"`
		Quantity int    `json:"quantity"`
	} `json:"line_items"`
	BrowserIP     string `json:"browser_ip"`
	ClientDetails struct {
		BrowserIP string `json:"browser_ip"`
		UserAgent string `json:"user_agent"`
	} `json:"client_details"`
	NoteAttributes []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"note_attributes"`
}

func parseOrder(rawBody []byte) (*VerifiedOrder, error) {
	var payload orderPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("parse order payload: %w", err)
	}

	email := payload.Email
	if email == "" {
		email = payload.Customer.Email
	}

	ip := payload.BrowserIP
	if ip == "" {
		ip = payload.ClientDetails.BrowserIP
	}

	order := &VerifiedOrder{
		OrderID:   strconv.FormatInt(payload.ID, 10),
		Email:     claims.NormalizeEmail(email),
		IPAddress: ip,
		UserAgent: payload.ClientDetails.UserAgent,
	}
	if payload.ID == 0 {
		order.OrderID = ""
	}

	for _, li := range payload.LineItems {
		order.LineItems = append(order.LineItems, LineItem{
			Title:    li.Title,
			Price:    li.Price,
			Quantity: li.Quantity,
		})
	}

	for _, attr := range payload.NoteAttributes {
		switch attr.Name {
		case "device_uuid":
			order.DeviceUUID = attr.Value
		case "cookie_id":
			order.CookieID = attr.Value
		case "fingerprint":
			order.Fingerprint = attr.Value
		}
	}

	return order, nil
}
