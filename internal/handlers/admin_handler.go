package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/puerhcraft/offerguard/internal/audit"
	"github.com/puerhcraft/offerguard/internal/dto"
	"github.com/puerhcraft/offerguard/internal/models"
)

// AdminHandler serves the operational read-only views over claims and
// webhook deliveries.
type AdminHandler struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewAdminHandler(db *gorm.DB, recorder *audit.Recorder) *AdminHandler {
	return &AdminHandler{db: db, audit: recorder}
}

// ListClaims handles GET /api/admin/claims with page/limit pagination.
func (h *AdminHandler) ListClaims(c *fiber.Ctx) error {
	page, limit := pagination(c)

	var total int64
	if err := h.db.WithContext(c.Context()).Model(&models.ClaimRecord{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list claims",
		})
	}

	var records []models.ClaimRecord
	err := h.db.WithContext(c.Context()).
		Order("claimed_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list claims",
		})
	}

	return c.JSON(dto.ClaimListResponse{
		Claims: records,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

// GetClaim handles GET /api/admin/claims/:id.
func (h *AdminHandler) GetClaim(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid claim id",
		})
	}

	var rec models.ClaimRecord
	if err := h.db.WithContext(c.Context()).First(&rec, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Claim not found",
		})
	}
	return c.JSON(rec)
}

// ListWebhookEvents handles GET /api/admin/webhooks.
func (h *AdminHandler) ListWebhookEvents(c *fiber.Ctx) error {
	page, limit := pagination(c)

	events, total, err := h.audit.List(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list webhook events",
		})
	}

	return c.JSON(dto.WebhookEventListResponse{
		Events: events,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
