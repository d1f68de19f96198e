package triggers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

var now = time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

type countingObserver struct {
	failures map[string]int
	emitted  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{failures: map[string]int{}, emitted: map[string]int{}}
}

func (o *countingObserver) RuleFailed(rule string)      { o.failures[rule]++ }
func (o *countingObserver) AlertEmitted(rule, _ string) { o.emitted[rule]++ }

type panicRule struct{}

func (panicRule) ID() string { return "panics" }
func (panicRule) Evaluate(Input) ([]models.Alert, error) {
	var idx map[string]*models.Client
	return nil, errors.New(idx["missing"].Name)
}

type errorRule struct{}

func (errorRule) ID() string                             { return "errors" }
func (errorRule) Evaluate(Input) ([]models.Alert, error) { return nil, errors.New("boom") }

func newEngine(t *testing.T) *Engine {
	return NewEngine(DefaultRegistry(DefaultConfig()), zaptest.NewLogger(t), nil)
}

func TestEvaluate_EmptySnapshotOnlyBriefing(t *testing.T) {
	res := newEngine(t).Evaluate(models.Snapshot{}, now, "")

	require.Len(t, res.Alerts, 1)
	a := res.Alerts[0]
	assert.Equal(t, models.SeverityInfo, a.Severity)
	assert.Equal(t, RuleDailyBriefing, a.SourceRuleID)
	assert.Equal(t, "daily_briefing:2026-10-18", a.TriggerID)
	assert.Equal(t, "Cash balance 0.00. Available stock 0.0 kg. Today: 0 sale(s), 0.00 revenue. Open deliveries today: 0 (0.0 kg).", a.Message)
	assert.Equal(t, now, a.GeneratedAt)
	assert.Equal(t, "2026-10-18", res.LastBriefingDate)
}

func TestEvaluate_BriefingShownOncePerDay(t *testing.T) {
	engine := newEngine(t)

	res := engine.Evaluate(models.Snapshot{}, now, "2026-10-18")
	assert.Empty(t, res.Alerts)
	assert.Equal(t, "2026-10-18", res.LastBriefingDate)

	res = engine.Evaluate(models.Snapshot{}, now, "2026-10-17")
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "2026-10-18", res.LastBriefingDate)
}

func TestEvaluate_RuleFailuresAreIsolated(t *testing.T) {
	observer := newCountingObserver()
	registry := NewRegistry(panicRule{}, errorRule{}, DailyBriefingRule{})
	engine := NewEngine(registry, zaptest.NewLogger(t), observer)

	res := engine.Evaluate(models.Snapshot{}, now, "")

	require.Len(t, res.Alerts, 1)
	assert.Equal(t, RuleDailyBriefing, res.Alerts[0].SourceRuleID)
	assert.Equal(t, 1, observer.failures["panics"])
	assert.Equal(t, 1, observer.failures["errors"])
	assert.Equal(t, 1, observer.emitted[RuleDailyBriefing])
}

func TestEvaluate_SortedBySeverity(t *testing.T) {
	snap := models.Snapshot{
		StockItems: []models.StockItem{
			{ID: "i1", LotID: "b1", WeightKg: 10, EntryDate: daysAgo(9)},
			{ID: "i2", LotID: "b1", WeightKg: 10, EntryDate: daysAgo(6)},
		},
		Batches: []models.Batch{{ID: "b1", RealCostPerKg: 20, Status: models.BatchOpen, PurchaseCost: 30000, ReceivedAt: daysAgo(3)}},
		Transactions: []models.Transaction{
			{Date: daysAgo(2), Direction: models.DirectionIn, Category: models.CategorySale, Amount: 1000},
		},
		Payables: []models.Payable{{ID: "p1", Amount: 800, DueDate: daysAgo(1)}},
		Sales: []models.Sale{
			{ClientID: "c1", WeightKg: 10, UnitPrice: 30, Date: daysAgo(20), PaymentTermDays: 7, PaymentStatus: models.PaymentPending},
		},
		Clients: []models.Client{{ID: "c1", Name: "Casa de Carnes", Active: true, CreditLimit: 8000}},
	}

	res := newEngine(t).Evaluate(snap, now, "")

	require.NotEmpty(t, res.Alerts)
	assert.Equal(t, models.SeverityBlock, res.Alerts[0].Severity)
	for i := 1; i < len(res.Alerts); i++ {
		assert.LessOrEqual(t, res.Alerts[i-1].Severity.Rank(), res.Alerts[i].Severity.Rank(), "alert %d out of order", i)
	}
	assert.Equal(t, models.SeverityInfo, res.Alerts[len(res.Alerts)-1].Severity)

	rules := map[string]bool{}
	for _, a := range res.Alerts {
		rules[a.SourceRuleID] = true
	}
	for _, id := range []string{RuleColdStorage, RuleOverdueReceivables, RuleCashFloor, RuleClientAttrition, RuleDailyBriefing, RulePayablesDue} {
		assert.True(t, rules[id], "expected an alert from %s", id)
	}
}

func TestEvaluate_StableWithinSeverity(t *testing.T) {
	alerts := []models.Alert{
		{TriggerID: "a", Severity: models.SeverityAlert},
		{TriggerID: "b", Severity: models.SeverityBlock},
		{TriggerID: "c", Severity: models.SeverityAlert},
		{TriggerID: "d", Severity: models.SeverityInfo},
		{TriggerID: "e", Severity: models.SeverityCritical},
		{TriggerID: "f", Severity: models.SeverityBlock},
	}
	SortBySeverity(alerts)

	ids := ""
	for _, a := range alerts {
		ids += a.TriggerID
	}
	assert.Equal(t, "bfeacd", ids)
}

func TestEvaluate_Deterministic(t *testing.T) {
	snap := models.Snapshot{
		StockItems: []models.StockItem{{ID: "i1", WeightKg: 3, EntryDate: daysAgo(7)}},
		Clients:    []models.Client{{ID: "c1", Active: true}, {ID: "c2", Active: true}},
		Sales: []models.Sale{
			{ClientID: "c1", WeightKg: 1, UnitPrice: 1, Date: daysAgo(45)},
			{ClientID: "c2", WeightKg: 1, UnitPrice: 1, Date: daysAgo(50)},
		},
	}
	engine := newEngine(t)
	assert.Equal(t, engine.Evaluate(snap, now, ""), engine.Evaluate(snap, now, ""))
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := NewEngine(nil, nil, nil)
	assert.Len(t, engine.registry.Rules(), 6)

	res := engine.Evaluate(models.Snapshot{}, now, "")
	assert.Len(t, res.Alerts, 1)
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	registry.Register(DailyBriefingRule{})
	registry.Register(errorRule{})

	rules := registry.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, RuleDailyBriefing, rules[0].ID())

	rules[0] = errorRule{}
	assert.Equal(t, RuleDailyBriefing, registry.Rules()[0].ID())
}
