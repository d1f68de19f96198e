package triggers

import (
	"fmt"
	"sort"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// OverdueReceivablesRule flags pending credit sales about to fall due or already late.
type OverdueReceivablesRule struct {
	cfg Config
}

func (r OverdueReceivablesRule) ID() string { return RuleOverdueReceivables }

func (r OverdueReceivablesRule) Evaluate(in Input) ([]models.Alert, error) {
	var (
		soonCount, lateCount   int
		soonAmount, lateAmount float64
		worstDelay             int
	)
	lateClients := make(map[string]bool)

	for _, sale := range in.Snapshot.Sales {
		if sale.PaymentStatus != models.PaymentPending || sale.PaymentTermDays <= 0 || sale.DueDate.IsZero() {
			continue
		}
		delay := models.CalendarDays(sale.DueDate, in.Now)
		switch {
		case delay > r.cfg.DueSoonDays:
			lateCount++
			lateAmount += sale.Amount()
			lateClients[sale.ClientID] = true
			worstDelay = max(worstDelay, delay)
		case delay >= -r.cfg.DueSoonDays:
			soonCount++
			soonAmount += sale.Amount()
		}
	}

	var alerts []models.Alert
	if lateCount > 0 {
		hint := "Call the clients today and agree on a payment date."
		if worstDelay > r.cfg.DelinquencyEscalationDays {
			hint = "Suspend credit for delinquent clients until the balance is settled."
		}
		alerts = append(alerts, models.Alert{
			TriggerID:    triggerID(RuleOverdueReceivables, "overdue", in.Now),
			SourceRuleID: RuleOverdueReceivables,
			Title:        "Overdue receivables",
			Message: fmt.Sprintf("%d sale(s) from %d client(s) overdue, %.2f outstanding. Worst delay %d days.",
				lateCount, len(lateClients), lateAmount, worstDelay),
			Severity:    models.SeverityCritical,
			ActionHint:  hint,
			GeneratedAt: in.Now,
		})
	}
	if soonCount > 0 {
		alerts = append(alerts, models.Alert{
			TriggerID:    triggerID(RuleOverdueReceivables, "due_soon", in.Now),
			SourceRuleID: RuleOverdueReceivables,
			Title:        "Receivables due now",
			Message:      fmt.Sprintf("%d sale(s) due within %d day(s), %.2f to collect.", soonCount, r.cfg.DueSoonDays, soonAmount),
			Severity:     models.SeverityAlert,
			ActionHint:   "Send payment reminders before the due date passes.",
			GeneratedAt:  in.Now,
		})
	}
	return alerts, nil
}

// CashFloorRule compares the cash balance with an emergency floor and a floor
// derived from what the next purchases will cost.
type CashFloorRule struct {
	cfg Config
}

func (r CashFloorRule) ID() string { return RuleCashFloor }

func (r CashFloorRule) Evaluate(in Input) ([]models.Alert, error) {
	counted := 0
	for _, t := range in.Snapshot.Transactions {
		if t.Counts() {
			counted++
		}
	}
	// an empty ledger is missing data, not an empty till
	if counted == 0 {
		return nil, nil
	}

	balance := in.Snapshot.CashBalance()
	relative := r.cfg.RelativeFloorMultiplier * r.purchaseBaseline(in.Snapshot.Batches)

	var upcoming float64
	for _, p := range in.Snapshot.Payables {
		if !p.Unpaid() || p.DueDate.IsZero() {
			continue
		}
		if until := -models.CalendarDays(p.DueDate, in.Now); until >= 0 && until <= r.cfg.PayablesHorizonDays {
			upcoming += p.Amount
		}
	}

	switch {
	case balance < r.cfg.CashEmergencyFloor:
		return []models.Alert{{
			TriggerID:    triggerID(RuleCashFloor, "emergency", in.Now),
			SourceRuleID: RuleCashFloor,
			Title:        "Cash below emergency floor",
			Message: fmt.Sprintf("Cash balance %.2f is below the emergency floor of %.2f. Payables due in %d days: %.2f.",
				balance, r.cfg.CashEmergencyFloor, r.cfg.PayablesHorizonDays, upcoming),
			Severity:    models.SeverityBlock,
			ActionHint:  "Hold new purchases and collect overdue receivables immediately.",
			GeneratedAt: in.Now,
		}}, nil
	case balance < relative:
		return []models.Alert{{
			TriggerID:    triggerID(RuleCashFloor, "low", in.Now),
			SourceRuleID: RuleCashFloor,
			Title:        "Cash below purchase cover",
			Message: fmt.Sprintf("Cash balance %.2f is below %.2f needed to cover the next purchases. Payables due in %d days: %.2f.",
				balance, relative, r.cfg.PayablesHorizonDays, upcoming),
			Severity:    models.SeverityAlert,
			ActionHint:  "Review the purchase schedule and prioritize collections this week.",
			GeneratedAt: in.Now,
		}}, nil
	}
	return nil, nil
}

// purchaseBaseline averages the purchase cost of the most recently received open batches.
func (r CashFloorRule) purchaseBaseline(batches []models.Batch) float64 {
	open := make([]models.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Status == models.BatchOpen {
			open = append(open, b)
		}
	}
	if len(open) == 0 {
		return r.cfg.DefaultBatchCostBaseline
	}

	sort.SliceStable(open, func(i, j int) bool { return open[i].ReceivedAt.After(open[j].ReceivedAt) })
	if len(open) > r.cfg.OpenBatchSample {
		open = open[:r.cfg.OpenBatchSample]
	}

	var total float64
	for _, b := range open {
		total += b.PurchaseCost
	}
	return total / float64(len(open))
}

// PayablesDueRule flags unpaid obligations due today or a few days overdue.
type PayablesDueRule struct {
	cfg Config
}

func (r PayablesDueRule) ID() string { return RulePayablesDue }

func (r PayablesDueRule) Evaluate(in Input) ([]models.Alert, error) {
	var (
		count, pastDue int
		total          float64
	)
	for _, p := range in.Snapshot.Payables {
		if !p.Unpaid() || p.DueDate.IsZero() {
			continue
		}
		late := models.CalendarDays(p.DueDate, in.Now)
		if late < 0 || late > r.cfg.PayablesLookbackDays {
			continue
		}
		count++
		total += p.Amount
		if late > 0 {
			pastDue++
		}
	}
	if count == 0 {
		return nil, nil
	}

	severity := models.SeverityAlert
	hint := "Schedule the payments due today."
	if pastDue > 0 {
		severity = models.SeverityCritical
		hint = "Pay or renegotiate the overdue obligations today to avoid penalties."
	}

	return []models.Alert{{
		TriggerID:    triggerID(RulePayablesDue, "", in.Now),
		SourceRuleID: RulePayablesDue,
		Title:        "Payables due",
		Message: fmt.Sprintf("%d payable(s) totaling %.2f due today or up to %d days ago, %d past due.",
			count, total, r.cfg.PayablesLookbackDays, pastDue),
		Severity:    severity,
		ActionHint:  hint,
		GeneratedAt: in.Now,
	}}, nil
}
