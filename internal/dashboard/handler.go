package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

// Handler serves the cached dashboard endpoints
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/companies/:companyId/dashboard")
	{
		companies.GET("/metrics", h.getMetrics)
		companies.GET("/monthly-series", h.getMonthlySeries)
	}
}

// getMetrics handles GET /api/v1/companies/:companyId/dashboard/metrics?year=
func (h *Handler) getMetrics(c *gin.Context) {
	companyID := c.Param("companyId")
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	metrics, err := h.service.GetMetrics(c.Request.Context(), companyID, year)
	if err != nil {
		h.respondError(c, companyID, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// getMonthlySeries handles GET /api/v1/companies/:companyId/dashboard/monthly-series?year=
func (h *Handler) getMonthlySeries(c *gin.Context) {
	companyID := c.Param("companyId")
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	series, err := h.service.GetMonthlySeries(c.Request.Context(), companyID, year)
	if err != nil {
		h.respondError(c, companyID, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) yearParam(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().UTC().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
		return 0, false
	}
	return year, true
}

func (h *Handler) respondError(c *gin.Context, companyID string, err error) {
	if errors.Is(err, emissions.ErrConfigurationMissing) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "emission data not ready"})
		return
	}
	h.logger.Error("Dashboard lookup failed",
		zap.String("company_id", companyID),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
