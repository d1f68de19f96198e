// Package predictive projects near-future KPIs from trailing windows of the snapshot.
package predictive

import (
	"math"
	"time"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// Config holds the window lengths and trend thresholds used by the engine.
type Config struct {
	ShortWindowDays      int
	LongWindowDays       int
	RevenueTrendPct      float64
	PurchaseCostTrendPct float64
	ExpiringSoonAgeDays  int
	HighChurnPct         float64
	PurchaseSafetyDays   float64
}

// DefaultConfig returns the thresholds the business runs with.
func DefaultConfig() Config {
	return Config{
		ShortWindowDays:      7,
		LongWindowDays:       30,
		RevenueTrendPct:      5,
		PurchaseCostTrendPct: 3,
		ExpiringSoonAgeDays:  6,
		HighChurnPct:         40,
		PurchaseSafetyDays:   3,
	}
}

// Engine computes a PredictiveSnapshot. It holds no state between calls.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine, filling zero-valued settings from DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.ShortWindowDays <= 0 {
		cfg.ShortWindowDays = def.ShortWindowDays
	}
	if cfg.LongWindowDays <= 0 {
		cfg.LongWindowDays = def.LongWindowDays
	}
	if cfg.RevenueTrendPct <= 0 {
		cfg.RevenueTrendPct = def.RevenueTrendPct
	}
	if cfg.PurchaseCostTrendPct <= 0 {
		cfg.PurchaseCostTrendPct = def.PurchaseCostTrendPct
	}
	if cfg.ExpiringSoonAgeDays <= 0 {
		cfg.ExpiringSoonAgeDays = def.ExpiringSoonAgeDays
	}
	if cfg.HighChurnPct <= 0 {
		cfg.HighChurnPct = def.HighChurnPct
	}
	if cfg.PurchaseSafetyDays <= 0 {
		cfg.PurchaseSafetyDays = def.PurchaseSafetyDays
	}
	return &Engine{cfg: cfg}
}

// Project computes every KPI family for the snapshot as of now.
func (e *Engine) Project(snap models.Snapshot, now time.Time) models.PredictiveSnapshot {
	snap = snap.Normalize()
	out := models.PredictiveSnapshot{GeneratedAt: now}

	e.revenue(&out, snap, now)
	e.stock(&out, snap, now)
	e.cash(&out, snap, now)
	e.churn(&out, snap, now)
	e.purchaseCost(&out, snap, now)
	e.volume(&out, snap, now)

	return out
}

func (e *Engine) revenue(out *models.PredictiveSnapshot, snap models.Snapshot, now time.Time) {
	short, long := e.cfg.ShortWindowDays, e.cfg.LongWindowDays
	daily := make([]float64, long)

	for _, sale := range snap.Sales {
		if sale.Reversed() {
			continue
		}
		amount := sale.Amount()
		age := models.CalendarDays(sale.Date, now)
		switch {
		case sale.Date.IsZero() || age < 0:
			continue
		case age < long:
			out.Revenue30d += amount
			daily[long-1-age] += amount
			if age < short {
				out.Revenue7d += amount
			}
		case age < 2*long:
			out.RevenuePrior30d += amount
		}
	}

	out.DailyAverage7d = out.Revenue7d / float64(max(short, 1))
	out.DailyAverage30d = out.Revenue30d / float64(max(long, 1))
	out.ProjectedRevenue7d = out.DailyAverage7d * float64(short)
	out.ProjectedRevenue30d = out.DailyAverage30d * float64(long)
	out.RevenueVariationPct = PercentChange(out.RevenuePrior30d, out.Revenue30d)
	out.RevenueTrend = Classify(out.RevenueVariationPct, e.cfg.RevenueTrendPct)
	out.RevenueSlopePerDay = Slope(daily)
}

func (e *Engine) stock(out *models.PredictiveSnapshot, snap models.Snapshot, now time.Time) {
	out.AvailableStockKg = snap.AvailableWeight()

	for _, item := range snap.StockItems {
		if item.Available() && item.AgeDays(now) >= e.cfg.ExpiringSoonAgeDays {
			out.ExpiringSoonCount++
			out.ExpiringSoonKg += item.WeightKg
		}
	}

	var soldKg float64
	for _, sale := range snap.Sales {
		if !sale.Reversed() && models.WithinDays(sale.Date, now, e.cfg.ShortWindowDays) {
			soldKg += sale.WeightKg
		}
	}
	out.AvgDailyKgSold7d = soldKg / float64(e.cfg.ShortWindowDays)
	out.DaysUntilStockout = Runway(out.AvailableStockKg, out.AvgDailyKgSold7d)
}

func (e *Engine) cash(out *models.PredictiveSnapshot, snap models.Snapshot, now time.Time) {
	long := e.cfg.LongWindowDays
	out.CashBalance = snap.CashBalance()

	for _, t := range snap.Transactions {
		if models.WithinDays(t.Date, now, long) {
			out.NetCashFlow30d += t.Signed()
		}
	}
	out.AvgDailyCashFlow = out.NetCashFlow30d / float64(long)
	out.ProjectedBalance30d = out.CashBalance + out.AvgDailyCashFlow*float64(long)

	for _, p := range snap.Payables {
		if !p.Unpaid() || p.DueDate.IsZero() {
			continue
		}
		// overdue obligations are still owed within the horizon
		if -models.CalendarDays(p.DueDate, now) <= long {
			out.PayablesDue30d += p.Amount
		}
	}
	out.PostObligationsBalance = out.ProjectedBalance30d - out.PayablesDue30d

	switch {
	case out.AvgDailyCashFlow < 0:
		out.DaysUntilCashZero = safeDiv(math.Max(out.CashBalance, 0), math.Abs(out.AvgDailyCashFlow), 0)
	case out.PostObligationsBalance < 0:
		out.DaysUntilCashZero = safeDiv(math.Max(out.CashBalance, 0), out.PayablesDue30d, 0) * float64(long)
	default:
		out.DaysUntilCashZero = models.NoDataDays
	}
	out.CashAtRisk = out.PostObligationsBalance < 0 || out.DaysUntilCashZero < float64(long)
}

func (e *Engine) churn(out *models.PredictiveSnapshot, snap models.Snapshot, now time.Time) {
	buyers := make(map[string]bool)
	for _, sale := range snap.Sales {
		if !sale.Reversed() && models.WithinDays(sale.Date, now, e.cfg.LongWindowDays) {
			buyers[sale.ClientID] = true
		}
	}

	for _, c := range snap.Clients {
		if !c.Active {
			continue
		}
		out.ActiveClients++
		if buyers[c.ID] {
			out.ActiveBuyers30d++
		}
	}

	out.InactiveClients = out.ActiveClients - out.ActiveBuyers30d
	out.ChurnRatePct = safeDiv(float64(out.InactiveClients), float64(out.ActiveClients), 0) * 100
	out.HighChurn = out.ChurnRatePct > e.cfg.HighChurnPct
}

func (e *Engine) purchaseCost(out *models.PredictiveSnapshot, snap models.Snapshot, now time.Time) {
	var cost7, kg7, cost30, kg30 float64

	for _, b := range snap.Batches {
		if b.Status != models.BatchClosed || b.TotalWeightKg == 0 {
			continue
		}
		cost := BatchCost(b)
		if models.WithinDays(b.ReceivedAt, now, e.cfg.LongWindowDays) {
			cost30 += cost
			kg30 += b.TotalWeightKg
			if models.WithinDays(b.ReceivedAt, now, e.cfg.ShortWindowDays) {
				cost7 += cost
				kg7 += b.TotalWeightKg
			}
		}
	}

	out.PurchaseCostPerKg7d = safeDiv(cost7, kg7, 0)
	out.PurchaseCostPerKg30d = safeDiv(cost30, kg30, 0)
	if out.PurchaseCostPerKg7d > 0 && out.PurchaseCostPerKg30d > 0 {
		out.PurchaseCostVariationPct = PercentChange(out.PurchaseCostPerKg30d, out.PurchaseCostPerKg7d)
	}
	out.PurchaseCostTrend = Classify(out.PurchaseCostVariationPct, e.cfg.PurchaseCostTrendPct)
	out.SuggestedPurchaseInDays = math.Max(out.DaysUntilStockout-e.cfg.PurchaseSafetyDays, 0)
}

func (e *Engine) volume(out *models.PredictiveSnapshot, snap models.Snapshot, now time.Time) {
	var kg7, kg30 float64
	for _, sale := range snap.Sales {
		if sale.Reversed() || !models.WithinDays(sale.Date, now, e.cfg.LongWindowDays) {
			continue
		}
		out.SalesCount30d++
		kg30 += sale.WeightKg
		if models.WithinDays(sale.Date, now, e.cfg.ShortWindowDays) {
			out.SalesCount7d++
			kg7 += sale.WeightKg
		}
	}
	out.AvgKgPerSale7d = safeDiv(kg7, float64(out.SalesCount7d), 0)
	out.AvgKgPerSale30d = safeDiv(kg30, float64(out.SalesCount30d), 0)
}

// BatchCost is the purchase cost of a batch converted from its unit-weight price.
// Batches without a declared unit price fall back to the real cost per kg.
func BatchCost(b models.Batch) float64 {
	if b.PricePerUnitWeight > 0 && b.UnitWeightKg > 0 {
		return b.PricePerUnitWeight * b.TotalWeightKg / b.UnitWeightKg
	}
	return b.RealCostPerKg * b.TotalWeightKg
}
