package triggers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// ClientAttritionRule names the most valuable active clients who stopped buying.
type ClientAttritionRule struct {
	cfg Config
}

func (r ClientAttritionRule) ID() string { return RuleClientAttrition }

type lapsedClient struct {
	client  models.Client
	elapsed int
}

func (r ClientAttritionRule) Evaluate(in Input) ([]models.Alert, error) {
	last := make(map[string]time.Time)
	for _, sale := range in.Snapshot.Sales {
		if sale.Reversed() || sale.Date.IsZero() {
			continue
		}
		if sale.Date.After(last[sale.ClientID]) {
			last[sale.ClientID] = sale.Date
		}
	}

	var lapsed []lapsedClient
	for _, c := range in.Snapshot.Clients {
		lastSale, ok := last[c.ID]
		if !c.Active || !ok {
			continue
		}
		threshold := r.cfg.AttritionDays
		if c.CreditLimit >= r.cfg.HighValueCreditLimit {
			threshold = r.cfg.HighValueAttritionDays
		}
		if elapsed := models.DaysSince(lastSale, in.Now); elapsed > threshold {
			lapsed = append(lapsed, lapsedClient{client: c, elapsed: elapsed})
		}
	}
	if len(lapsed) == 0 {
		return nil, nil
	}

	sort.SliceStable(lapsed, func(i, j int) bool {
		if lapsed[i].client.CreditLimit != lapsed[j].client.CreditLimit {
			return lapsed[i].client.CreditLimit > lapsed[j].client.CreditLimit
		}
		return lapsed[i].client.ID < lapsed[j].client.ID
	})

	top := lapsed[:min(len(lapsed), r.cfg.AttritionTopN)]
	names := make([]string, 0, len(top))
	for _, l := range top {
		name := l.client.Name
		if name == "" {
			name = l.client.ID
		}
		names = append(names, fmt.Sprintf("%s (%d days)", name, l.elapsed))
	}

	message := fmt.Sprintf("%d client(s) past their buying cadence: %s.", len(lapsed), strings.Join(names, ", "))
	if extra := len(lapsed) - len(top); extra > 0 {
		message += fmt.Sprintf(" And %d more.", extra)
	}

	return []models.Alert{{
		TriggerID:    triggerID(RuleClientAttrition, "", in.Now),
		SourceRuleID: RuleClientAttrition,
		Title:        "Clients at risk of leaving",
		Message:      message,
		Severity:     models.SeverityAlert,
		ActionHint:   "Call these clients today and send them the current price list.",
		GeneratedAt:  in.Now,
	}}, nil
}
