package achievements

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

// Handler handles HTTP requests for badges and credits
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new achievements handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers achievement routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/companies/:companyId")
	{
		companies.GET("/badges", h.getBadges)
		companies.POST("/badges/evaluate", h.evaluateBadges)
		companies.GET("/credits", h.getCreditBalance)
	}
}

// evaluateBadges handles POST /api/v1/companies/:companyId/badges/evaluate
func (h *Handler) evaluateBadges(c *gin.Context) {
	companyID := c.Param("companyId")

	result, err := h.service.EvaluateBadges(c.Request.Context(), companyID)
	if err != nil {
		switch {
		case errors.Is(err, emissions.ErrConfigurationMissing):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "emission data not ready"})
		case errors.Is(err, ErrAwardConflict):
			// idempotent input; the badge stays pending until a later run
			c.JSON(http.StatusConflict, gin.H{"error": "evaluation in progress, retry later"})
		default:
			h.logger.Error("Badge evaluation failed",
				zap.String("company_id", companyID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// getBadges handles GET /api/v1/companies/:companyId/badges
func (h *Handler) getBadges(c *gin.Context) {
	companyID := c.Param("companyId")

	badges, err := h.service.GetBadges(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("Failed to load badges",
			zap.String("company_id", companyID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"company_id": companyID, "badges": badges})
}

// getCreditBalance handles GET /api/v1/companies/:companyId/credits
func (h *Handler) getCreditBalance(c *gin.Context) {
	companyID := c.Param("companyId")

	balance, err := h.service.GetCreditBalance(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("Failed to load credit balance",
			zap.String("company_id", companyID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"company_id": companyID, "carbon_credits": balance})
}
