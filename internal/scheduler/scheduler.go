package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/config"
	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/repository/mongodb"
	"github.com/mamadbah2/meatdesk/internal/service/reporting"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
)

const jobTimeout = 2 * time.Minute

// Insights is the reporting surface the jobs use.
type Insights interface {
	Build(ctx context.Context, lastBriefingDate string) (reporting.Insights, error)
	Alerts(ctx context.Context, lastBriefingDate string) (triggers.Result, error)
	Prices(ctx context.Context) ([]models.PriceQuote, error)
	SaveDailyReport(ctx context.Context, ins reporting.Insights) error
	Now() time.Time
}

// BriefingStore persists the last day a briefing went out.
type BriefingStore interface {
	GetBriefingState(ctx context.Context, recipient string) (models.BriefingState, error)
	SaveBriefingState(ctx context.Context, state models.BriefingState) error
}

// Notifier delivers messages and urgent alerts to the manager.
type Notifier interface {
	Notify(ctx context.Context, body string) error
	Dispatch(ctx context.Context, alerts []models.Alert) (int, error)
}

// PricePublisher writes the price catalog somewhere operators can read it.
type PricePublisher interface {
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	insights  Insights
	briefings BriefingStore
	notifier  Notifier
	prices    PricePublisher
	cfg       config.Config
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. prices may be nil to disable publication.
func NewScheduler(cfg config.Config, insights Insights, briefings BriefingStore, notifier Notifier, prices PricePublisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(cfg.Reporting.Location())),
		insights:  insights,
		briefings: briefings,
		notifier:  notifier,
		prices:    prices,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("timezone", s.cfg.Reporting.Timezone))

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"briefing", s.cfg.Reporting.BriefingSchedule, s.RunBriefing},
		{"alert_sweep", s.cfg.Reporting.AlertSweepSchedule, s.RunAlertSweep},
		{"price_publication", s.cfg.Reporting.PriceSchedule, s.RunPricePublication},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.schedule, s.wrap(job.name, job.run)); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.schedule, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	}
}

// RunBriefing sends the daily report once per calendar day and persists it.
func (s *Scheduler) RunBriefing(ctx context.Context) error {
	recipient := s.cfg.WhatsApp.ManagerID

	state, err := s.briefings.GetBriefingState(ctx, recipient)
	if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
		return fmt.Errorf("load briefing state: %w", err)
	}

	ins, err := s.insights.Build(ctx, state.LastBriefingDate)
	if err != nil {
		return err
	}

	if err := s.insights.SaveDailyReport(ctx, ins); err != nil {
		s.logger.Error("failed to persist daily report", zap.Error(err))
	}

	if ins.LastBriefingDate == state.LastBriefingDate {
		s.logger.Info("briefing already sent today", zap.String("date", state.LastBriefingDate))
		return nil
	}

	if err := s.notifier.Notify(ctx, reporting.FormatBriefing(ins)); err != nil {
		return fmt.Errorf("send briefing: %w", err)
	}

	return s.briefings.SaveBriefingState(ctx, models.BriefingState{
		Recipient:        recipient,
		LastBriefingDate: ins.LastBriefingDate,
		UpdatedAt:        s.insights.Now(),
	})
}

// RunAlertSweep pushes urgent alerts that were not delivered yet.
func (s *Scheduler) RunAlertSweep(ctx context.Context) error {
	result, err := s.insights.Alerts(ctx, models.DayKey(s.insights.Now()))
	if err != nil {
		return err
	}

	sent, err := s.notifier.Dispatch(ctx, result.Alerts)
	if sent > 0 {
		s.logger.Info("urgent alerts pushed", zap.Int("count", sent))
	}
	return err
}

// RunPricePublication replaces the published price catalog with current quotes.
func (s *Scheduler) RunPricePublication(ctx context.Context) error {
	if s.prices == nil {
		return nil
	}

	quotes, err := s.insights.Prices(ctx)
	if err != nil {
		return err
	}

	rows := reporting.PriceRows(quotes, s.insights.Now())
	if err := s.prices.ReplaceRange(ctx, s.cfg.Sheets.PriceRange, rows); err != nil {
		return fmt.Errorf("publish prices: %w", err)
	}
	s.logger.Info("price catalog published", zap.Int("quotes", len(quotes)))
	return nil
}
