package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/meatdesk/internal/config"
	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/service/predictive"
	"github.com/mamadbah2/meatdesk/internal/service/pricing"
	"github.com/mamadbah2/meatdesk/internal/service/reporting"
	"github.com/mamadbah2/meatdesk/internal/service/scoring"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
	"github.com/mamadbah2/meatdesk/pkg/logger"
)

type options struct {
	snapshotPath string
	at           string
	timezone     string
	lastBriefing string
	text         bool
	logLevel     string
}

// fileSource serves a snapshot decoded from a YAML or JSON file.
type fileSource struct {
	path string
}

func (f fileSource) LoadSnapshot(context.Context) (models.Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", f.path, err)
	}
	return snap, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "insightctl",
		Short: "Evaluate alerts, forecasts, prices and client scores over a snapshot file",
		Long: `insightctl loads a snapshot fixture (YAML or JSON) and runs the insight
engines over it at a fixed instant.

Examples:
  insightctl alerts --snapshot testdata/snapshot.yaml --now 2026-10-18T07:00:00Z
  insightctl prices --snapshot snap.json --text`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.snapshotPath, "snapshot", "", "Snapshot file (YAML or JSON)")
	flags.StringVar(&opts.at, "now", "", "Evaluation instant, RFC3339 or YYYY-MM-DD (default: current time)")
	flags.StringVar(&opts.timezone, "timezone", "", "Reporting timezone (default: TIMEZONE or America/Sao_Paulo)")
	flags.StringVar(&opts.lastBriefing, "last-briefing", "", "Last calendar day a briefing was shown (YYYY-MM-DD)")
	flags.BoolVar(&opts.text, "text", false, "Render chat text instead of JSON")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	_ = root.MarkPersistentFlagRequired("snapshot")

	root.AddCommand(
		insightCmd(opts, out, "alerts", "Evaluate trigger rules", func(ctx context.Context, svc *reporting.Service) (any, string, error) {
			res, err := svc.Alerts(ctx, opts.lastBriefing)
			return res, reporting.FormatAlerts(res.Alerts), err
		}),
		insightCmd(opts, out, "forecast", "Project revenue, stock, cash and churn", func(ctx context.Context, svc *reporting.Service) (any, string, error) {
			f, err := svc.Forecast(ctx)
			return f, reporting.FormatForecast(f), err
		}),
		insightCmd(opts, out, "prices", "Suggest prices for available stock", func(ctx context.Context, svc *reporting.Service) (any, string, error) {
			q, err := svc.Prices(ctx)
			return q, reporting.FormatPrices(q, 0), err
		}),
		insightCmd(opts, out, "clients", "Score and tier active clients", func(ctx context.Context, svc *reporting.Service) (any, string, error) {
			scores, err := svc.ClientScores(ctx)
			if err != nil {
				return nil, "", err
			}
			snap, err := fileSource{path: opts.snapshotPath}.LoadSnapshot(ctx)
			return scores, reporting.FormatClients(scores, snap.Clients), err
		}),
		insightCmd(opts, out, "all", "Run every engine and print the daily report", func(ctx context.Context, svc *reporting.Service) (any, string, error) {
			ins, err := svc.Build(ctx, opts.lastBriefing)
			return ins, reporting.FormatBriefing(ins), err
		}),
	)
	return root
}

type runner func(ctx context.Context, svc *reporting.Service) (any, string, error)

func insightCmd(opts *options, out io.Writer, use, short string, run runner) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			value, text, err := run(cmd.Context(), svc)
			if err != nil {
				return err
			}
			if opts.text {
				_, err = fmt.Fprintln(out, text)
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		},
	}
}

func (o *options) service() (*reporting.Service, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if o.timezone != "" {
		cfg.Reporting.Timezone = o.timezone
	}
	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Reporting.Timezone, err)
	}

	at, err := parseInstant(o.at, loc)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(o.logLevel)
	if err != nil {
		return nil, err
	}

	engines := reporting.Engines{
		Triggers:   triggers.NewEngine(triggers.DefaultRegistry(cfg.Insights.Triggers()), log.Named("engine.triggers"), nil),
		Predictive: predictive.NewEngine(predictive.DefaultConfig()),
		Pricing:    pricing.NewEngine(cfg.Insights.Pricing()),
		Scoring:    scoring.NewEngine(scoring.DefaultConfig()),
	}
	svc := reporting.NewService(fileSource{path: o.snapshotPath}, nil, engines, nil, loc, log.Named("reporting"))
	return svc.WithClock(func() time.Time { return at }), nil
}

func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(models.DayLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339 or %s: %w", models.DayLayout, err)
	}
	return t, nil
}
