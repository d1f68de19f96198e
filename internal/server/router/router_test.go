package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/metrics"
	"github.com/mamadbah2/meatdesk/internal/server/handlers"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
)

type stubMessaging struct {
	handled int
	err     error
}

func (s *stubMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if token != "verify" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (s *stubMessaging) HandleWebhook(context.Context, models.WebhookPayload) error {
	s.handled++
	return s.err
}

func (s *stubMessaging) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return s.err
}

type stubInsights struct {
	lastBriefing string
	err          error
}

func (s *stubInsights) Alerts(_ context.Context, last string) (triggers.Result, error) {
	s.lastBriefing = last
	if s.err != nil {
		return triggers.Result{}, s.err
	}
	return triggers.Result{
		Alerts:           []models.Alert{{TriggerID: "cash_floor:emergency:2026-10-18", Severity: models.SeverityBlock}},
		LastBriefingDate: "2026-10-18",
	}, nil
}

func (s *stubInsights) Forecast(context.Context) (models.PredictiveSnapshot, error) {
	return models.PredictiveSnapshot{CashBalance: 4200, DaysUntilStockout: models.NoDataDays}, s.err
}

func (s *stubInsights) Prices(context.Context) ([]models.PriceQuote, error) {
	return nil, s.err
}

func (s *stubInsights) ClientScores(context.Context) ([]models.ClientScore, error) {
	return []models.ClientScore{{ClientID: "c1", Tier: models.TierGold}}, s.err
}

func setup(t *testing.T) (http.Handler, *stubMessaging, *stubInsights, *prometheus.Registry) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	msg := &stubMessaging{}
	ins := &stubInsights{}
	reg := prometheus.NewRegistry()
	metrics.NewRegistry(reg).AlertDispatched("sent")

	r := New(handlers.NewWebhookHandler(msg, logger), handlers.NewInsightsHandler(ins, logger), reg, logger)
	return r, msg, ins, reg
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthzAndRequestID(t *testing.T) {
	r, _, _, _ := setup(t)

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = do(r, http.MethodGet, "/healthz", "", requestIDHeader, "req-123")
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestInsightsAlerts(t *testing.T) {
	r, _, ins, _ := setup(t)

	w := do(r, http.MethodGet, "/insights/alerts?last_briefing_date=2026-10-17", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-10-17", ins.lastBriefing)

	var body struct {
		Alerts           []models.Alert `json:"alerts"`
		LastBriefingDate string         `json:"last_briefing_date"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, models.SeverityBlock, body.Alerts[0].Severity)
	assert.Equal(t, "2026-10-18", body.LastBriefingDate)

	w = do(r, http.MethodGet, "/insights/alerts?last_briefing_date=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightsEndpoints(t *testing.T) {
	r, _, _, _ := setup(t)

	w := do(r, http.MethodGet, "/insights/forecast", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cash_balance":4200`)
	assert.Contains(t, w.Body.String(), `"days_until_stockout":999`)

	w = do(r, http.MethodGet, "/insights/prices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"quotes":[]}`, w.Body.String())

	w = do(r, http.MethodGet, "/insights/clients", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier":"GOLD"`)
}

func TestInsightsUnavailable(t *testing.T) {
	r, _, ins, _ := setup(t)
	ins.err = errors.New("load snapshot: connection refused")

	for _, path := range []string{"/insights/alerts", "/insights/forecast", "/insights/prices", "/insights/clients"} {
		w := do(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestWebhookRoutes(t *testing.T) {
	r, msg, _, _ := setup(t)

	w := do(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w = do(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/webhook", `{"object":"whatsapp_business_account","entry":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, msg.handled)

	w = do(r, http.MethodPost, "/webhook", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/send-message", `{"to":"5511987654321","message":"hi"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodPost, "/send-message", `{"to":"5511987654321"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _, _, _ := setup(t)

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `meatdesk_alerts_dispatched_total{result="sent"} 1`)
}
