package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sweetcrumb/bakebill-api/internal/application/service"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/dto/response"
	"github.com/sweetcrumb/bakebill-api/pkg/phone"
)

// LoyaltyHandler handles loyalty status lookups
type LoyaltyHandler struct {
	loyaltyService *service.LoyaltyService
	cfg            *config.Config
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(loyaltyService *service.LoyaltyService, cfg *config.Config) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService, cfg: cfg}
}

// Status handles checking a customer's loyalty standing by phone number
func (h *LoyaltyHandler) Status(c *gin.Context) {
	raw := c.Query("phone")
	if raw == "" {
		response.BadRequest(c, "phone query parameter is required")
		return
	}

	normalized := phone.Normalize(raw, h.cfg.WhatsApp.CountryCode)
	status := h.loyaltyService.CheckStatus(c.Request.Context(), normalized)

	response.OK(c, "Loyalty status retrieved successfully", status)
}
