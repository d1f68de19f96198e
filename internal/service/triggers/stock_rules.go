package triggers

import (
	"fmt"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// ColdStorageRule flags available stock approaching or past its shelf life.
type ColdStorageRule struct {
	cfg Config
}

func (r ColdStorageRule) ID() string { return RuleColdStorage }

type agingBucket struct {
	count    int
	weightKg float64
	value    float64
}

func (b *agingBucket) add(item models.StockItem, costPerKg float64) {
	b.count++
	b.weightKg += item.WeightKg
	b.value += item.WeightKg * costPerKg
}

func (r ColdStorageRule) Evaluate(in Input) ([]models.Alert, error) {
	batches := in.Snapshot.BatchIndex()
	var critical, warning agingBucket

	for _, item := range in.Snapshot.StockItems {
		if !item.Available() {
			continue
		}
		cost := batches[item.LotID].RealCostPerKg
		switch age := item.AgeDays(in.Now); {
		case age >= r.cfg.MaxShelfLifeDays:
			critical.add(item, cost)
		case age >= r.cfg.WarningAgeDays:
			warning.add(item, cost)
		}
	}

	var alerts []models.Alert
	if critical.count > 0 {
		alerts = append(alerts, models.Alert{
			TriggerID:    triggerID(RuleColdStorage, "critical", in.Now),
			SourceRuleID: RuleColdStorage,
			Title:        "Stock past shelf life",
			Message: fmt.Sprintf("%d piece(s) aged %d days or more: %.1f kg, %.2f value at risk.",
				critical.count, r.cfg.MaxShelfLifeDays, critical.weightKg, critical.value),
			Severity:    models.SeverityBlock,
			ActionHint:  "Pull these pieces from sale, inspect them and liquidate or discard today.",
			GeneratedAt: in.Now,
		})
	}
	if warning.count > 0 {
		alerts = append(alerts, models.Alert{
			TriggerID:    triggerID(RuleColdStorage, "warning", in.Now),
			SourceRuleID: RuleColdStorage,
			Title:        "Stock close to shelf life",
			Message: fmt.Sprintf("%d piece(s) aged %d-%d days: %.1f kg, %.2f value at risk.",
				warning.count, r.cfg.WarningAgeDays, r.cfg.MaxShelfLifeDays-1, warning.weightKg, warning.value),
			Severity:    models.SeverityAlert,
			ActionHint:  "Apply markdown prices and offer these pieces first in today's orders.",
			GeneratedAt: in.Now,
		})
	}
	return alerts, nil
}
