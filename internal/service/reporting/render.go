package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
	"github.com/mamadbah2/meatdesk/pkg/clients/whatsapp"
)

const maxQuoteLines = 15

// PriceSheetHeader is the first row of the published price catalog.
var PriceSheetHeader = []interface{}{"Item", "Lot", "Cut", "Age (days)", "Weight (kg)", "Suggested price/kg", "Floor price/kg", "Discount %", "Margin %", "Urgency", "Updated"}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// brl formats an amount the way clients read it in a chat message.
func brl(v float64) string {
	return "R$ " + strings.Replace(money(v), ".", ",", 1)
}

func days(v float64) string {
	if v >= models.NoDataDays {
		return "n/a"
	}
	return fmt.Sprintf("%.1f days", v)
}

// FormatAlerts renders alerts in severity order, one block per alert.
func FormatAlerts(alerts []models.Alert) string {
	if len(alerts) == 0 {
		return "No alerts right now."
	}

	blocks := make([]string, 0, len(alerts))
	for _, a := range alerts {
		block := fmt.Sprintf("[%s] %s\n%s", a.Severity, a.Title, a.Message)
		if a.ActionHint != "" {
			block += "\nAction: " + a.ActionHint
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

// FormatForecast renders the predictive indicators as short labelled lines.
func FormatForecast(f models.PredictiveSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Forecast %s\n", models.DayKey(f.GeneratedAt))
	fmt.Fprintf(&b, "Revenue 7d %s, 30d %s (%s, %+.1f%% vs prior 30d).\n",
		money(f.Revenue7d), money(f.Revenue30d), f.RevenueTrend, f.RevenueVariationPct)
	fmt.Fprintf(&b, "Projected revenue: next 7d %s, next 30d %s.\n", money(f.ProjectedRevenue7d), money(f.ProjectedRevenue30d))
	fmt.Fprintf(&b, "Stock %.1f kg, selling %.1f kg/day, stockout in %s. Expiring soon: %d piece(s), %.1f kg.\n",
		f.AvailableStockKg, f.AvgDailyKgSold7d, days(f.DaysUntilStockout), f.ExpiringSoonCount, f.ExpiringSoonKg)
	fmt.Fprintf(&b, "Cash %s, net flow 30d %s, projected in 30d %s, after payables %s.",
		money(f.CashBalance), money(f.NetCashFlow30d), money(f.ProjectedBalance30d), money(f.PostObligationsBalance))
	if f.CashAtRisk {
		fmt.Fprintf(&b, " Cash runs out in %s.", days(f.DaysUntilCashZero))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Clients: %d active, %d bought in 30d, churn %.1f%%.", f.ActiveClients, f.ActiveBuyers30d, f.ChurnRatePct)
	if f.HighChurn {
		b.WriteString(" High churn.")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Purchase cost/kg 7d %s, 30d %s (%s). Next purchase in %s.",
		money(f.PurchaseCostPerKg7d), money(f.PurchaseCostPerKg30d), f.PurchaseCostTrend, days(f.SuggestedPurchaseInDays))
	return b.String()
}

// FormatPrices renders up to limit quotes, oldest stock first.
func FormatPrices(quotes []models.PriceQuote, limit int) string {
	if len(quotes) == 0 {
		return "No stock available for pricing."
	}

	lines := []string{"Suggested prices per kg:"}
	for i, q := range quotes {
		if limit > 0 && i == limit {
			lines = append(lines, fmt.Sprintf("... and %d more.", len(quotes)-limit))
			break
		}
		line := fmt.Sprintf("%s %s %dd %.1f kg: %s (floor %s)", q.ItemID, q.Cut, q.AgeDays, q.WeightKg, money(q.SuggestedPrice), money(q.FloorPrice))
		if q.DiscountPct > 0 {
			line += fmt.Sprintf(" -%.0f%%", q.DiscountPct)
		}
		if q.Urgency != models.UrgencyNormal {
			line += fmt.Sprintf(" [%s]", q.Urgency)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// PriceRows converts quotes into spreadsheet rows, header first.
func PriceRows(quotes []models.PriceQuote, now time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(quotes)+1)
	rows = append(rows, PriceSheetHeader)
	stamp := now.Format("2006-01-02 15:04")
	for _, q := range quotes {
		rows = append(rows, []interface{}{
			q.ItemID, q.LotID, string(q.Cut), q.AgeDays, q.WeightKg,
			q.SuggestedPrice, q.FloorPrice, q.DiscountPct, q.MarginPct, string(q.Urgency), stamp,
		})
	}
	return rows
}

var tierOrder = []models.Tier{
	models.TierGold, models.TierSilver, models.TierBronze, models.TierNew, models.TierAtRisk, models.TierInactive,
}

// FormatClients renders the tier distribution and the clients worth a call, with chat links.
func FormatClients(scores []models.ClientScore, clients []models.Client) string {
	if len(scores) == 0 {
		return "No active clients."
	}

	contacts := make(map[string]string, len(clients))
	for _, c := range clients {
		contacts[c.ID] = c.Contact
	}

	byTier := make(map[models.Tier][]models.ClientScore)
	for _, s := range scores {
		byTier[s.Tier] = append(byTier[s.Tier], s)
	}

	counts := make([]string, 0, len(tierOrder))
	for _, t := range tierOrder {
		if n := len(byTier[t]); n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", t, n))
		}
	}
	lines := []string{"Clients: " + strings.Join(counts, ", ") + "."}

	for _, t := range []models.Tier{models.TierAtRisk, models.TierInactive} {
		for _, s := range byTier[t] {
			line := fmt.Sprintf("%s (%s, %d days since last purchase, risk %s)", s.Name, s.Tier, s.Recency, s.Risk)
			text := fmt.Sprintf("Olá %s, sentimos sua falta! Temos cortes frescos hoje. Posso enviar a tabela de preços?", s.Name)
			if link := whatsapp.ChatLink(contacts[s.ClientID], text); link != "" {
				line += " " + link
			}
			lines = append(lines, line)
		}
	}

	for _, s := range byTier[models.TierGold] {
		lines = append(lines, fmt.Sprintf("%s (GOLD, RFM %d): %s", s.Name, s.RFMScore, s.Recommendation))
	}
	return strings.Join(lines, "\n")
}

type collection struct {
	client  models.Client
	amount  float64
	oldest  time.Time
	maxLate int
}

// Collections lists clients with past-due credit sales, largest debt first.
func Collections(snap models.Snapshot, now time.Time) []string {
	clients := make(map[string]models.Client, len(snap.Clients))
	for _, c := range snap.Clients {
		clients[c.ID] = c
	}

	due := make(map[string]*collection)
	for _, sale := range snap.Sales {
		if sale.PaymentStatus != models.PaymentPending || sale.PaymentTermDays <= 0 || sale.DueDate.IsZero() {
			continue
		}
		late := models.CalendarDays(sale.DueDate, now)
		if late <= 0 {
			continue
		}
		c, ok := due[sale.ClientID]
		if !ok {
			client := clients[sale.ClientID]
			if client.ID == "" {
				client = models.Client{ID: sale.ClientID, Name: sale.ClientID}
			}
			c = &collection{client: client, oldest: sale.DueDate}
			due[sale.ClientID] = c
		}
		c.amount += sale.Amount()
		if sale.DueDate.Before(c.oldest) {
			c.oldest = sale.DueDate
		}
		c.maxLate = max(c.maxLate, late)
	}

	list := make([]*collection, 0, len(due))
	for _, c := range due {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].amount != list[j].amount {
			return list[i].amount > list[j].amount
		}
		return list[i].client.ID < list[j].client.ID
	})

	lines := make([]string, 0, len(list))
	for _, c := range list {
		line := fmt.Sprintf("%s: %s overdue %d days", c.client.Name, money(c.amount), c.maxLate)
		text := fmt.Sprintf("Olá %s, consta em aberto o valor de %s vencido desde %s. Podemos combinar o pagamento?",
			c.client.Name, brl(c.amount), c.oldest.In(now.Location()).Format("02/01"))
		if link := whatsapp.ChatLink(c.client.Contact, text); link != "" {
			line += " " + link
		}
		lines = append(lines, line)
	}
	return lines
}

// FormatBriefing renders the daily report sent to the manager.
func FormatBriefing(ins Insights) string {
	var sections []string
	var actionable []models.Alert
	for _, a := range ins.Alerts {
		if a.SourceRuleID == triggers.RuleDailyBriefing {
			sections = append(sections, a.Title+"\n"+a.Message)
			continue
		}
		actionable = append(actionable, a)
	}
	if len(sections) == 0 {
		b := triggers.Summarize(triggers.Input{Snapshot: ins.snapshot, Now: ins.GeneratedAt})
		sections = append(sections, fmt.Sprintf("Daily briefing %s\nCash balance %s. Available stock %.1f kg. Today: %d sale(s), %s revenue.",
			models.DayKey(ins.GeneratedAt), money(b.CashBalance), b.AvailableKg, b.SalesToday, money(b.RevenueToday)))
	}

	if len(actionable) > 0 {
		sections = append(sections, FormatAlerts(actionable))
	}

	f := ins.Forecast
	sections = append(sections, fmt.Sprintf("Outlook: revenue %s (%+.1f%%), cash in 30d %s, stockout in %s.",
		f.RevenueTrend, f.RevenueVariationPct, money(f.ProjectedBalance30d), days(f.DaysUntilStockout)))

	if lines := Collections(ins.snapshot, ins.GeneratedAt); len(lines) > 0 {
		sections = append(sections, "Collections:\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}
