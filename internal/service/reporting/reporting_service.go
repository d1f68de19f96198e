package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/service/predictive"
	"github.com/mamadbah2/meatdesk/internal/service/pricing"
	"github.com/mamadbah2/meatdesk/internal/service/scoring"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
)

// SnapshotSource loads the current operational data.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
}

// ReportStore persists computed insight reports.
type ReportStore interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// EngineTimer records how long each engine run took.
type EngineTimer interface {
	ObserveEngine(engine string, start time.Time)
}

// Engines groups the four insight engines. Nil members are replaced by defaults.
type Engines struct {
	Triggers   *triggers.Engine
	Predictive *predictive.Engine
	Pricing    *pricing.Engine
	Scoring    *scoring.Engine
}

// Insights is the full output of one evaluation over a snapshot.
type Insights struct {
	GeneratedAt      time.Time                 `json:"generated_at"`
	Alerts           []models.Alert            `json:"alerts"`
	LastBriefingDate string                    `json:"last_briefing_date"`
	Forecast         models.PredictiveSnapshot `json:"forecast"`
	Prices           []models.PriceQuote       `json:"prices"`
	Clients          []models.ClientScore      `json:"clients"`

	snapshot models.Snapshot
}

// Snapshot returns the normalized data the insights were computed from.
func (i Insights) Snapshot() models.Snapshot {
	return i.snapshot
}

// Service computes insights on demand and renders them for chat.
type Service struct {
	source  SnapshotSource
	store   ReportStore
	engines Engines
	timer   EngineTimer
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(source SnapshotSource, store ReportStore, engines Engines, timer EngineTimer, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if engines.Triggers == nil {
		engines.Triggers = triggers.NewEngine(nil, logger.Named("triggers"), nil)
	}
	if engines.Predictive == nil {
		engines.Predictive = predictive.NewEngine(predictive.DefaultConfig())
	}
	if engines.Pricing == nil {
		engines.Pricing = pricing.NewEngine(pricing.DefaultConfig())
	}
	if engines.Scoring == nil {
		engines.Scoring = scoring.NewEngine(scoring.DefaultConfig())
	}
	return &Service{
		source:  source,
		store:   store,
		engines: engines,
		timer:   timer,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by offline tools that evaluate a fixture at a fixed instant.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Now returns the current time in the reporting timezone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) load(ctx context.Context) (models.Snapshot, time.Time, error) {
	snap, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		return models.Snapshot{}, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap.Normalize(), s.Now(), nil
}

func (s *Service) observe(engine string, start time.Time) {
	if s.timer != nil {
		s.timer.ObserveEngine(engine, start)
	}
}

// Build runs every engine over one snapshot.
func (s *Service) Build(ctx context.Context, lastBriefingDate string) (Insights, error) {
	snap, now, err := s.load(ctx)
	if err != nil {
		return Insights{}, err
	}

	ins := Insights{GeneratedAt: now, snapshot: snap}

	start := time.Now()
	result := s.engines.Triggers.Evaluate(snap, now, lastBriefingDate)
	s.observe("triggers", start)
	ins.Alerts = result.Alerts
	ins.LastBriefingDate = result.LastBriefingDate

	start = time.Now()
	ins.Forecast = s.engines.Predictive.Project(snap, now)
	s.observe("predictive", start)

	start = time.Now()
	ins.Prices = s.engines.Pricing.Quote(snap, now)
	s.observe("pricing", start)

	start = time.Now()
	ins.Clients = s.engines.Scoring.Score(snap, now)
	s.observe("scoring", start)

	s.logger.Debug("insights built",
		zap.Int("alerts", len(ins.Alerts)),
		zap.Int("quotes", len(ins.Prices)),
		zap.Int("clients", len(ins.Clients)),
	)
	return ins, nil
}

// Alerts evaluates the trigger rules. Passing today's date as lastBriefingDate suppresses the briefing.
func (s *Service) Alerts(ctx context.Context, lastBriefingDate string) (triggers.Result, error) {
	snap, now, err := s.load(ctx)
	if err != nil {
		return triggers.Result{}, err
	}
	start := time.Now()
	defer s.observe("triggers", start)
	return s.engines.Triggers.Evaluate(snap, now, lastBriefingDate), nil
}

// Forecast computes the predictive indicators.
func (s *Service) Forecast(ctx context.Context) (models.PredictiveSnapshot, error) {
	snap, now, err := s.load(ctx)
	if err != nil {
		return models.PredictiveSnapshot{}, err
	}
	start := time.Now()
	defer s.observe("predictive", start)
	return s.engines.Predictive.Project(snap, now), nil
}

// Prices computes suggested prices for available stock.
func (s *Service) Prices(ctx context.Context) ([]models.PriceQuote, error) {
	snap, now, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer s.observe("pricing", start)
	return s.engines.Pricing.Quote(snap, now), nil
}

// ClientScores classifies active clients.
func (s *Service) ClientScores(ctx context.Context) ([]models.ClientScore, error) {
	snap, now, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer s.observe("scoring", start)
	return s.engines.Scoring.Score(snap, now), nil
}

// SaveDailyReport persists the insights under their calendar day.
func (s *Service) SaveDailyReport(ctx context.Context, ins Insights) error {
	if s.store == nil {
		return nil
	}
	report := models.DailyReport{
		Date:         models.DayKey(ins.GeneratedAt),
		Alerts:       ins.Alerts,
		Forecast:     ins.Forecast,
		PriceQuotes:  ins.Prices,
		ClientScores: ins.Clients,
		CreatedAt:    s.Now(),
	}
	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return fmt.Errorf("save daily report %s: %w", report.Date, err)
	}
	return nil
}

// AlertsText renders the actionable alerts without the daily briefing.
func (s *Service) AlertsText(ctx context.Context) (string, error) {
	result, err := s.Alerts(ctx, models.DayKey(s.Now()))
	if err != nil {
		return "", err
	}
	return FormatAlerts(result.Alerts), nil
}

// ForecastText renders the predictive indicators.
func (s *Service) ForecastText(ctx context.Context) (string, error) {
	forecast, err := s.Forecast(ctx)
	if err != nil {
		return "", err
	}
	return FormatForecast(forecast), nil
}

// PricesText renders the price list of available stock.
func (s *Service) PricesText(ctx context.Context) (string, error) {
	quotes, err := s.Prices(ctx)
	if err != nil {
		return "", err
	}
	return FormatPrices(quotes, maxQuoteLines), nil
}

// ClientsText renders client tiers with chat links for clients that need a call.
func (s *Service) ClientsText(ctx context.Context) (string, error) {
	snap, now, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	start := time.Now()
	scores := s.engines.Scoring.Score(snap, now)
	s.observe("scoring", start)
	return FormatClients(scores, snap.Clients), nil
}

// BriefingText renders the full daily report: briefing, alerts, cash outlook and collections.
func (s *Service) BriefingText(ctx context.Context) (string, error) {
	ins, err := s.Build(ctx, "")
	if err != nil {
		return "", err
	}
	return FormatBriefing(ins), nil
}
