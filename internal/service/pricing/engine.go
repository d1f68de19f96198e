// Package pricing suggests a selling price for every available stock item using
// a markdown-by-age curve, a cut markup and a cost floor.
package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// Band is one step of the markdown curve.
type Band struct {
	DiscountPct float64
	Urgency     models.Urgency
}

// Config holds the pricing parameters.
type Config struct {
	// Curve is indexed by clamped age in days, 0..models.MaxShelfLifeDays.
	Curve           []Band
	Markup          map[models.CutType]float64
	FloorMarkup     float64
	ReferenceSales  int
	DefaultRefPrice float64
}

// DefaultConfig returns the curve and markups the shop prices with.
func DefaultConfig() Config {
	return Config{
		Curve: []Band{
			{0, models.UrgencyNormal},
			{0, models.UrgencyNormal},
			{0, models.UrgencyNormal},
			{0, models.UrgencyNormal},
			{3, models.UrgencyAttention},
			{5, models.UrgencyAttention},
			{10, models.UrgencyUrgent},
			{20, models.UrgencyCritical},
			{30, models.UrgencyEmergency},
		},
		Markup: map[models.CutType]float64{
			models.CutWhole:        1.30,
			models.CutFrontQuarter: 1.25,
			models.CutHindQuarter:  1.45,
		},
		FloorMarkup:     1.05,
		ReferenceSales:  20,
		DefaultRefPrice: 25,
	}
}

// Engine computes price quotes. It holds no state between calls.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine, filling missing settings from DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if len(cfg.Curve) != models.MaxShelfLifeDays+1 {
		cfg.Curve = def.Curve
	}
	if len(cfg.Markup) == 0 {
		cfg.Markup = def.Markup
	}
	if cfg.FloorMarkup <= 0 {
		cfg.FloorMarkup = def.FloorMarkup
	}
	if cfg.ReferenceSales <= 0 {
		cfg.ReferenceSales = def.ReferenceSales
	}
	if cfg.DefaultRefPrice <= 0 {
		cfg.DefaultRefPrice = def.DefaultRefPrice
	}
	return &Engine{cfg: cfg}
}

// Quote returns one quote per available item, oldest first. Callers rely on the
// ordering to liquidate stock first-in first-out.
func (e *Engine) Quote(snap models.Snapshot, now time.Time) []models.PriceQuote {
	snap = snap.Normalize()
	batches := snap.BatchIndex()
	ref := e.ReferencePrice(snap.Sales)

	quotes := make([]models.PriceQuote, 0, len(snap.StockItems))
	for _, item := range snap.StockItems {
		if !item.Available() {
			continue
		}
		quotes = append(quotes, e.quoteItem(item, batches[item.LotID].RealCostPerKg, ref, now))
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].AgeDays != quotes[j].AgeDays {
			return quotes[i].AgeDays > quotes[j].AgeDays
		}
		return quotes[i].ItemID < quotes[j].ItemID
	})
	return quotes
}

func (e *Engine) quoteItem(item models.StockItem, cost, ref float64, now time.Time) models.PriceQuote {
	age := min(item.AgeDays(now), models.MaxShelfLifeDays)
	band := e.cfg.Curve[age]

	markup, ok := e.cfg.Markup[item.Cut]
	if !ok {
		markup = 1
	}

	base := max(cost*markup, ref)
	discounted := base * (1 - band.DiscountPct/100)
	floor := round2(cost * e.cfg.FloorMarkup)
	final := max(round2(discounted), floor)

	var margin float64
	if cost > 0 && final > 0 {
		margin = round2((final - cost) / final * 100)
	}

	return models.PriceQuote{
		ItemID:         item.ID,
		LotID:          item.LotID,
		Cut:            item.Cut,
		AgeDays:        item.AgeDays(now),
		WeightKg:       item.WeightKg,
		CostPerKg:      round2(cost),
		BasePrice:      round2(base),
		SuggestedPrice: final,
		FloorPrice:     floor,
		DiscountPct:    band.DiscountPct,
		MarginPct:      margin,
		Urgency:        band.Urgency,
	}
}

// ReferencePrice is the mean unit price of the most recent non-reversed sales.
func (e *Engine) ReferencePrice(sales []models.Sale) float64 {
	recent := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		if !s.Reversed() && s.UnitPrice > 0 {
			recent = append(recent, s)
		}
	}
	if len(recent) == 0 {
		return e.cfg.DefaultRefPrice
	}

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > e.cfg.ReferenceSales {
		recent = recent[:e.cfg.ReferenceSales]
	}

	sum := decimal.Zero
	for _, s := range recent {
		sum = sum.Add(decimal.NewFromFloat(s.UnitPrice))
	}
	return sum.Div(decimal.NewFromInt(int64(len(recent)))).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
