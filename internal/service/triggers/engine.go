// Package triggers runs a registry of independent rules ("sentinels") over a
// snapshot and returns one severity-ranked list of alerts.
package triggers

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// Input is what every rule evaluates.
type Input struct {
	Snapshot models.Snapshot
	Now      time.Time
	// LastBriefingDate is the host-owned key of the last day a briefing was shown.
	LastBriefingDate string
}

// Rule is one independent sentinel.
type Rule interface {
	ID() string
	Evaluate(in Input) ([]models.Alert, error)
}

// Observer receives per-rule outcomes. metrics.Registry satisfies it.
type Observer interface {
	RuleFailed(rule string)
	AlertEmitted(rule, severity string)
}

// Result is the ranked alert list plus the briefing key the host must persist.
type Result struct {
	Alerts           []models.Alert
	LastBriefingDate string
}

// Engine evaluates every registered rule.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
	observer Observer
}

// NewEngine wires an engine. A nil registry uses DefaultRegistry(DefaultConfig()).
func NewEngine(registry *Registry, logger *zap.Logger, observer Observer) *Engine {
	if registry == nil {
		registry = DefaultRegistry(DefaultConfig())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger, observer: observer}
}

// Evaluate runs every rule against the snapshot. A failing rule contributes no
// alerts and never stops its siblings.
func (e *Engine) Evaluate(snap models.Snapshot, now time.Time, lastBriefingDate string) Result {
	in := Input{Snapshot: snap.Normalize(), Now: now, LastBriefingDate: lastBriefingDate}
	res := Result{LastBriefingDate: lastBriefingDate}

	for _, rule := range e.registry.Rules() {
		alerts := e.guard(rule, in)
		for _, a := range alerts {
			if e.observer != nil {
				e.observer.AlertEmitted(rule.ID(), string(a.Severity))
			}
			if a.SourceRuleID == RuleDailyBriefing {
				res.LastBriefingDate = models.DayKey(now)
			}
		}
		res.Alerts = append(res.Alerts, alerts...)
	}

	SortBySeverity(res.Alerts)
	return res
}

func (e *Engine) guard(rule Rule, in Input) (alerts []models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(rule.ID(), fmt.Errorf("panic: %v", r))
			alerts = nil
		}
	}()

	out, err := rule.Evaluate(in)
	if err != nil {
		e.fail(rule.ID(), err)
		return nil
	}
	return out
}

func (e *Engine) fail(rule string, err error) {
	e.logger.Error("trigger rule failed", zap.String("rule", rule), zap.Error(err))
	if e.observer != nil {
		e.observer.RuleFailed(rule)
	}
}

// SortBySeverity orders alerts BLOCK, CRITICAL, ALERT, INFO, keeping emission order within a severity.
func SortBySeverity(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
}

func triggerID(rule, bucket string, now time.Time) string {
	if bucket == "" {
		return fmt.Sprintf("%s:%s", rule, models.DayKey(now))
	}
	return fmt.Sprintf("%s:%s:%s", rule, bucket, models.DayKey(now))
}
