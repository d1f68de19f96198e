package triggers

import "sync"

// Rule identifiers.
const (
	RuleColdStorage        = "cold_storage_aging"
	RuleOverdueReceivables = "overdue_receivables"
	RuleCashFloor          = "cash_floor"
	RuleClientAttrition    = "client_attrition"
	RuleDailyBriefing      = "daily_briefing"
	RulePayablesDue        = "payables_due"
)

// Config holds every rule threshold.
type Config struct {
	MaxShelfLifeDays int
	WarningAgeDays   int

	DueSoonDays               int
	DelinquencyEscalationDays int

	CashEmergencyFloor       float64
	RelativeFloorMultiplier  float64
	OpenBatchSample          int
	DefaultBatchCostBaseline float64
	PayablesHorizonDays      int

	HighValueCreditLimit   float64
	HighValueAttritionDays int
	AttritionDays          int
	AttritionTopN          int

	PayablesLookbackDays int
}

// DefaultConfig returns the thresholds the operation runs with.
func DefaultConfig() Config {
	return Config{
		MaxShelfLifeDays:          8,
		WarningAgeDays:            6,
		DueSoonDays:               1,
		DelinquencyEscalationDays: 5,
		CashEmergencyFloor:        5000,
		RelativeFloorMultiplier:   1.5,
		OpenBatchSample:           3,
		DefaultBatchCostBaseline:  20000,
		PayablesHorizonDays:       7,
		HighValueCreditLimit:      5000,
		HighValueAttritionDays:    15,
		AttritionDays:             30,
		AttritionTopN:             5,
		PayablesLookbackDays:      3,
	}
}

// Registry is an ordered, concurrency-safe set of rules. Registration order is
// the emission order within a severity.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewRegistry builds a registry holding rules.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: append([]Rule(nil), rules...)}
}

// withDefaults fills zero-valued thresholds from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	setInt := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	setFloat := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	setInt(&c.MaxShelfLifeDays, def.MaxShelfLifeDays)
	setInt(&c.WarningAgeDays, def.WarningAgeDays)
	setInt(&c.DueSoonDays, def.DueSoonDays)
	setInt(&c.DelinquencyEscalationDays, def.DelinquencyEscalationDays)
	setFloat(&c.CashEmergencyFloor, def.CashEmergencyFloor)
	setFloat(&c.RelativeFloorMultiplier, def.RelativeFloorMultiplier)
	setInt(&c.OpenBatchSample, def.OpenBatchSample)
	setFloat(&c.DefaultBatchCostBaseline, def.DefaultBatchCostBaseline)
	setInt(&c.PayablesHorizonDays, def.PayablesHorizonDays)
	setFloat(&c.HighValueCreditLimit, def.HighValueCreditLimit)
	setInt(&c.HighValueAttritionDays, def.HighValueAttritionDays)
	setInt(&c.AttritionDays, def.AttritionDays)
	setInt(&c.AttritionTopN, def.AttritionTopN)
	setInt(&c.PayablesLookbackDays, def.PayablesLookbackDays)
	return c
}

// DefaultRegistry registers the six built-in sentinels.
func DefaultRegistry(cfg Config) *Registry {
	cfg = cfg.withDefaults()
	return NewRegistry(
		ColdStorageRule{cfg: cfg},
		OverdueReceivablesRule{cfg: cfg},
		CashFloorRule{cfg: cfg},
		ClientAttritionRule{cfg: cfg},
		DailyBriefingRule{},
		PayablesDueRule{cfg: cfg},
	)
}

// Register appends a rule.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
}

// Rules returns a copy of the registered rules.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules...)
}
