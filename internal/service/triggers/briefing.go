package triggers

import (
	"fmt"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// DailyBriefingRule emits one informational summary per calendar day.
type DailyBriefingRule struct{}

func (DailyBriefingRule) ID() string { return RuleDailyBriefing }

// Briefing holds the figures of the daily summary.
type Briefing struct {
	CashBalance    float64
	AvailableKg    float64
	SalesToday     int
	RevenueToday   float64
	DeliveriesOpen int
	DeliveryKg     float64
}

// Summarize computes the daily figures for the calendar day of now.
func Summarize(in Input) Briefing {
	b := Briefing{
		CashBalance: in.Snapshot.CashBalance(),
		AvailableKg: in.Snapshot.AvailableWeight(),
	}
	for _, sale := range in.Snapshot.Sales {
		if !sale.Reversed() && models.SameDay(sale.Date, in.Now) {
			b.SalesToday++
			b.RevenueToday += sale.Amount()
		}
	}
	for _, o := range in.Snapshot.Orders {
		if o.Status == models.OrderOpen && models.SameDay(o.DeliveryDate, in.Now) {
			b.DeliveriesOpen++
			b.DeliveryKg += o.WeightKg
		}
	}
	return b
}

func (DailyBriefingRule) Evaluate(in Input) ([]models.Alert, error) {
	today := models.DayKey(in.Now)
	if in.LastBriefingDate == today {
		return nil, nil
	}

	b := Summarize(in)
	return []models.Alert{{
		TriggerID:    triggerID(RuleDailyBriefing, "", in.Now),
		SourceRuleID: RuleDailyBriefing,
		Title:        "Daily briefing " + today,
		Message: fmt.Sprintf("Cash balance %.2f. Available stock %.1f kg. Today: %d sale(s), %.2f revenue. Open deliveries today: %d (%.1f kg).",
			b.CashBalance, b.AvailableKg, b.SalesToday, b.RevenueToday, b.DeliveriesOpen, b.DeliveryKg),
		Severity:    models.SeverityInfo,
		ActionHint:  "Review the alerts above before the first delivery.",
		GeneratedAt: in.Now,
	}}, nil
}
