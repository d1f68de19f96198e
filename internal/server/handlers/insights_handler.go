package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
)

// InsightsProvider computes the insight outputs served over HTTP.
type InsightsProvider interface {
	Alerts(ctx context.Context, lastBriefingDate string) (triggers.Result, error)
	Forecast(ctx context.Context) (models.PredictiveSnapshot, error)
	Prices(ctx context.Context) ([]models.PriceQuote, error)
	ClientScores(ctx context.Context) ([]models.ClientScore, error)
}

// InsightsHandler exposes the engines as read-only JSON endpoints.
type InsightsHandler struct {
	svc    InsightsProvider
	logger *zap.Logger
}

// NewInsightsHandler constructs the HTTP handler adapter.
func NewInsightsHandler(svc InsightsProvider, logger *zap.Logger) *InsightsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsHandler{svc: svc, logger: logger}
}

type alertsResponse struct {
	Alerts           []models.Alert `json:"alerts"`
	LastBriefingDate string         `json:"last_briefing_date"`
}

// Alerts evaluates the trigger rules. The optional last_briefing_date query
// parameter suppresses the briefing when it equals today's date.
func (h *InsightsHandler) Alerts(c *gin.Context) {
	lastBriefing := c.Query("last_briefing_date")
	if lastBriefing != "" {
		if _, err := time.Parse(models.DayLayout, lastBriefing); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last_briefing_date must be YYYY-MM-DD"})
			return
		}
	}

	result, err := h.svc.Alerts(c.Request.Context(), lastBriefing)
	if err != nil {
		h.fail(c, "alerts", err)
		return
	}
	if result.Alerts == nil {
		result.Alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, alertsResponse{Alerts: result.Alerts, LastBriefingDate: result.LastBriefingDate})
}

// Forecast serves the predictive indicators.
func (h *InsightsHandler) Forecast(c *gin.Context) {
	forecast, err := h.svc.Forecast(c.Request.Context())
	if err != nil {
		h.fail(c, "forecast", err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// Prices serves the suggested prices of available stock.
func (h *InsightsHandler) Prices(c *gin.Context) {
	quotes, err := h.svc.Prices(c.Request.Context())
	if err != nil {
		h.fail(c, "prices", err)
		return
	}
	if quotes == nil {
		quotes = []models.PriceQuote{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// Clients serves the client scores.
func (h *InsightsHandler) Clients(c *gin.Context) {
	scores, err := h.svc.ClientScores(c.Request.Context())
	if err != nil {
		h.fail(c, "clients", err)
		return
	}
	if scores == nil {
		scores = []models.ClientScore{}
	}
	c.JSON(http.StatusOK, gin.H{"clients": scores})
}

func (h *InsightsHandler) fail(c *gin.Context, endpoint string, err error) {
	h.logger.Error("failed computing insights",
		zap.String("endpoint", endpoint),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insights unavailable"})
}
