// Package scoring classifies active clients into loyalty and risk tiers using
// Recency, Frequency and Monetary (RFM) scores.
package scoring

import (
	"sort"
	"time"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// Breakpoint maps a bound to a 1-5 score. Recency bounds are upper limits in days,
// frequency and monetary bounds are lower limits.
type Breakpoint struct {
	Bound float64
	Score int
}

// Config holds the breakpoints and tier thresholds.
type Config struct {
	WindowDays int
	Recency    []Breakpoint
	Frequency  []Breakpoint
	Monetary   []Breakpoint

	AtRiskRecencyDays   int
	InactiveRecencyDays int
	GoldScore           int
	SilverScore         int
	CreditWarnRatio     float64
}

// DefaultConfig returns the breakpoints the commercial team agreed on.
func DefaultConfig() Config {
	return Config{
		WindowDays: 90,
		Recency: []Breakpoint{
			{7, 5},
			{15, 4},
			{30, 3},
			{60, 2},
		},
		Frequency: []Breakpoint{
			{8, 5},
			{5, 4},
			{3, 3},
			{1, 2},
		},
		Monetary: []Breakpoint{
			{10000, 5},
			{5000, 4},
			{2000, 3},
			{500, 2},
		},
		AtRiskRecencyDays:   30,
		InactiveRecencyDays: 60,
		GoldScore:           12,
		SilverScore:         8,
		CreditWarnRatio:     0.8,
	}
}

var recommendations = map[models.Tier]string{
	models.TierNew:      "Welcome the client and offer a first-order condition.",
	models.TierAtRisk:   "Collect the open balance before releasing new credit and call to understand the absence.",
	models.TierInactive: "Run a win-back contact with a targeted offer.",
	models.TierGold:     "Prioritize premium cuts and offer extended payment terms.",
	models.TierSilver:   "Keep a regular visit schedule and cross-sell hind quarters.",
	models.TierBronze:   "Increase purchase frequency with weekly specials.",
}

// Recommendation returns the fixed recommended action for a tier.
func Recommendation(tier models.Tier) string {
	return recommendations[tier]
}

// Engine scores clients. It holds no state between calls.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine, filling missing settings from DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = def.WindowDays
	}
	if len(cfg.Recency) == 0 {
		cfg.Recency = def.Recency
	}
	if len(cfg.Frequency) == 0 {
		cfg.Frequency = def.Frequency
	}
	if len(cfg.Monetary) == 0 {
		cfg.Monetary = def.Monetary
	}
	if cfg.AtRiskRecencyDays <= 0 {
		cfg.AtRiskRecencyDays = def.AtRiskRecencyDays
	}
	if cfg.InactiveRecencyDays <= 0 {
		cfg.InactiveRecencyDays = def.InactiveRecencyDays
	}
	if cfg.GoldScore <= 0 {
		cfg.GoldScore = def.GoldScore
	}
	if cfg.SilverScore <= 0 {
		cfg.SilverScore = def.SilverScore
	}
	if cfg.CreditWarnRatio <= 0 {
		cfg.CreditWarnRatio = def.CreditWarnRatio
	}
	return &Engine{cfg: cfg}
}

type history struct {
	count     int
	last      time.Time
	frequency int
	monetary  float64
}

// Score classifies every active client, highest RFM score first.
func (e *Engine) Score(snap models.Snapshot, now time.Time) []models.ClientScore {
	snap = snap.Normalize()

	histories := make(map[string]*history)
	for _, sale := range snap.Sales {
		if sale.Reversed() || sale.Date.IsZero() {
			continue
		}
		h, ok := histories[sale.ClientID]
		if !ok {
			h = &history{}
			histories[sale.ClientID] = h
		}
		h.count++
		if sale.Date.After(h.last) {
			h.last = sale.Date
		}
		if models.WithinDays(sale.Date, now, e.cfg.WindowDays) {
			h.frequency++
			h.monetary += sale.Amount()
		}
	}

	scores := make([]models.ClientScore, 0, len(snap.Clients))
	for _, c := range snap.Clients {
		if !c.Active {
			continue
		}
		h := histories[c.ID]
		if h == nil {
			h = &history{}
		}
		scores = append(scores, e.scoreClient(c, h, now))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].RFMScore != scores[j].RFMScore {
			return scores[i].RFMScore > scores[j].RFMScore
		}
		return scores[i].ClientID < scores[j].ClientID
	})
	return scores
}

func (e *Engine) scoreClient(c models.Client, h *history, now time.Time) models.ClientScore {
	recency := models.NoDataDays
	if h.count > 0 {
		recency = models.DaysSince(h.last, now)
	}

	score := models.ClientScore{
		ClientID:       c.ID,
		Name:           c.Name,
		Recency:        recency,
		Frequency:      h.frequency,
		Monetary:       h.monetary,
		RecencyScore:   e.recencyScore(recency),
		FrequencyScore: atLeast(e.cfg.Frequency, float64(h.frequency)),
		MonetaryScore:  atLeast(e.cfg.Monetary, h.monetary),
	}
	score.RFMScore = score.RecencyScore + score.FrequencyScore + score.MonetaryScore
	score.Tier = e.tier(c, h.count, recency, score.RFMScore)
	score.Risk = e.risk(c, score.Tier, recency)
	score.Recommendation = Recommendation(score.Tier)
	return score
}

// tier evaluates the rules in priority order; the first match wins.
func (e *Engine) tier(c models.Client, sales, recency, total int) models.Tier {
	switch {
	case sales == 0:
		return models.TierNew
	case c.Balance > 0 && recency > e.cfg.AtRiskRecencyDays:
		return models.TierAtRisk
	case recency > e.cfg.InactiveRecencyDays:
		return models.TierInactive
	case total >= e.cfg.GoldScore:
		return models.TierGold
	case total >= e.cfg.SilverScore:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

func (e *Engine) risk(c models.Client, tier models.Tier, recency int) models.Risk {
	overLimit := c.CreditLimit > 0 && c.Balance > c.CreditLimit
	nearLimit := c.CreditLimit > 0 && c.Balance > c.CreditLimit*e.cfg.CreditWarnRatio

	switch {
	case tier == models.TierNew:
		return models.RiskLow
	case tier == models.TierAtRisk || tier == models.TierInactive || overLimit:
		return models.RiskHigh
	case recency > e.cfg.AtRiskRecencyDays || nearLimit:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func (e *Engine) recencyScore(days int) int {
	for _, bp := range e.cfg.Recency {
		if float64(days) <= bp.Bound {
			return bp.Score
		}
	}
	return 1
}

func atLeast(bps []Breakpoint, v float64) int {
	for _, bp := range bps {
		if v >= bp.Bound {
			return bp.Score
		}
	}
	return 1
}
