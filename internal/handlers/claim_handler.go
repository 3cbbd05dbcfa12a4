package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/puerhcraft/offerguard/internal/claims"
	"github.com/puerhcraft/offerguard/internal/dto"
	"github.com/puerhcraft/offerguard/internal/metrics"
)

type ClaimHandler struct {
	resolver *claims.Resolver
	metrics  *metrics.Collector
}

func NewClaimHandler(resolver *claims.Resolver, collector *metrics.Collector) *ClaimHandler {
	return &ClaimHandler{resolver: resolver, metrics: collector}
}

// Check handles POST /api/claims/check. Identifiers come from the JSON body;
// the requester IP is derived from the forwarded-for chain (first entry)
// falling back to the peer address, and the user agent from its header.
func (h *ClaimHandler) Check(c *fiber.Ctx) error {
	var req dto.ClaimCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	ids := claims.IdentitySet{
		Email:       req.Email,
		DeviceUUID:  req.DeviceUUID,
		CookieID:    req.CookieID,
		Fingerprint: req.Fingerprint,
		IPAddress:   claims.ClientIP(c.Get(fiber.HeaderXForwardedFor), c.IP()),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
	}

	res, err := h.resolver.Resolve(c.Context(), ids)
	if err != nil {
		if errors.Is(err, claims.ErrInvalidIdentity) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "At least one identifier is required",
			})
		}
		slog.Error("claim resolution failed", "action", "claim_check", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to check claim",
		})
	}

	h.metrics.RecordClaimCheck(string(res.Status))
	slog.Info("claim check resolved", "status", res.Status)
	return c.JSON(dto.ClaimCheckResponse{Status: string(res.Status)})
}
