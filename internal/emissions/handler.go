package emissions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for emission computations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new emissions handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers emission computation routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/companies/:companyId")
	{
		companies.GET("/metrics", h.getMetrics)
		companies.GET("/monthly-series", h.getMonthlySeries)
		companies.GET("/drilldown", h.getDrilldown)
		companies.GET("/net-zero", h.getNetZeroProjection)
	}
}

// getMetrics handles GET /api/v1/companies/:companyId/metrics?year=
func (h *Handler) getMetrics(c *gin.Context) {
	companyID := c.Param("companyId")
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	metrics, err := h.service.ComputeMetrics(c.Request.Context(), companyID, year)
	if err != nil {
		h.respondError(c, companyID, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// getMonthlySeries handles GET /api/v1/companies/:companyId/monthly-series?year=
func (h *Handler) getMonthlySeries(c *gin.Context) {
	companyID := c.Param("companyId")
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	series, err := h.service.ComputeMonthlySeries(c.Request.Context(), companyID, year)
	if err != nil {
		h.respondError(c, companyID, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// getDrilldown handles GET /api/v1/companies/:companyId/drilldown?year=&month=
func (h *Handler) getDrilldown(c *gin.Context) {
	companyID := c.Param("companyId")
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	var month *time.Month
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
			return
		}
		mm := time.Month(m)
		month = &mm
	}

	drilldown, err := h.service.ComputeCategoryDrilldown(c.Request.Context(), companyID, year, month)
	if err != nil {
		h.respondError(c, companyID, err)
		return
	}
	c.JSON(http.StatusOK, drilldown)
}

// getNetZeroProjection handles GET /api/v1/companies/:companyId/net-zero?years=
func (h *Handler) getNetZeroProjection(c *gin.Context) {
	companyID := c.Param("companyId")

	years := 5
	if raw := c.Query("years"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "years must be a positive integer"})
			return
		}
		years = y
	}

	outlook, err := h.service.ProjectNetZero(c.Request.Context(), companyID, years)
	if errors.Is(err, ErrInsufficientHistory) {
		c.JSON(http.StatusOK, gin.H{"company_id": companyID, "status": "insufficient_data"})
		return
	}
	if err != nil {
		h.respondError(c, companyID, err)
		return
	}
	c.JSON(http.StatusOK, outlook)
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
	if errors.Is(err, ErrConfigurationMissing) {
		h.logger.Error("Emission factor table missing", zap.String("company_id", companyID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "emission data not ready"})
		return
	}
	h.logger.Error("Emission computation failed",
		zap.String("company_id", companyID),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
