package dto

import "github.com/puerhcraft/offerguard/internal/models"

// ClaimCheckRequest is the redemption-check body. Every identifier is
// optional; IP address and user agent come from transport headers, never the
// body.
type ClaimCheckRequest struct {
	Email       string `json:"email"`
	DeviceUUID  string `json:"device_uuid"`
	CookieID    string `json:"cookie_id"`
	Fingerprint string `json:"fingerprint"`
}

type ClaimCheckResponse struct {
	Status string `json:"status"`
}

type ClaimListResponse struct {
	Claims []models.ClaimRecord `json:"claims"`
	Total  int64                `json:"total"`
	Page   int                  `json:"page"`
	Limit  int                  `json:"limit"`
}
