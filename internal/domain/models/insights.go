package models

import "time"

// Severity ranks alerts; lower rank is more urgent.
type Severity string

const (
	SeverityBlock    Severity = "BLOCK"
	SeverityCritical Severity = "CRITICAL"
	SeverityAlert    Severity = "ALERT"
	SeverityInfo     Severity = "INFO"
)

var severityRank = map[Severity]int{
	SeverityBlock:    0,
	SeverityCritical: 1,
	SeverityAlert:    2,
	SeverityInfo:     3,
}

// Rank returns the ordering position of the severity. Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Alert is an actionable message produced by a trigger rule.
type Alert struct {
	TriggerID    string    `bson:"trigger_id" json:"trigger_id"`
	SourceRuleID string    `bson:"source_rule_id" json:"source_rule_id"`
	Title        string    `bson:"title" json:"title"`
	Message      string    `bson:"message" json:"message"`
	Severity     Severity  `bson:"severity" json:"severity"`
	ActionHint   string    `bson:"action_hint" json:"action_hint"`
	GeneratedAt  time.Time `bson:"generated_at" json:"generated_at"`
}

// Trend labels a period-over-period movement.
type Trend string

const (
	TrendRising  Trend = "SUBINDO"
	TrendFalling Trend = "CAINDO"
	TrendStable  Trend = "ESTAVEL"
)

// NoDataDays is the sentinel returned by runway computations when there is nothing to extrapolate from.
const NoDataDays = 999

// PredictiveSnapshot bundles every projected KPI.
type PredictiveSnapshot struct {
	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`

	Revenue7d           float64 `bson:"revenue_7d" json:"revenue_7d"`
	Revenue30d          float64 `bson:"revenue_30d" json:"revenue_30d"`
	RevenuePrior30d     float64 `bson:"revenue_prior_30d" json:"revenue_prior_30d"`
	DailyAverage7d      float64 `bson:"daily_average_7d" json:"daily_average_7d"`
	DailyAverage30d     float64 `bson:"daily_average_30d" json:"daily_average_30d"`
	ProjectedRevenue7d  float64 `bson:"projected_revenue_7d" json:"projected_revenue_7d"`
	ProjectedRevenue30d float64 `bson:"projected_revenue_30d" json:"projected_revenue_30d"`
	RevenueVariationPct float64 `bson:"revenue_variation_pct" json:"revenue_variation_pct"`
	RevenueTrend        Trend   `bson:"revenue_trend" json:"revenue_trend"`
	RevenueSlopePerDay  float64 `bson:"revenue_slope_per_day" json:"revenue_slope_per_day"`

	AvailableStockKg  float64 `bson:"available_stock_kg" json:"available_stock_kg"`
	AvgDailyKgSold7d  float64 `bson:"avg_daily_kg_sold_7d" json:"avg_daily_kg_sold_7d"`
	DaysUntilStockout float64 `bson:"days_until_stockout" json:"days_until_stockout"`
	ExpiringSoonCount int     `bson:"expiring_soon_count" json:"expiring_soon_count"`
	ExpiringSoonKg    float64 `bson:"expiring_soon_kg" json:"expiring_soon_kg"`

	CashBalance            float64 `bson:"cash_balance" json:"cash_balance"`
	NetCashFlow30d         float64 `bson:"net_cash_flow_30d" json:"net_cash_flow_30d"`
	AvgDailyCashFlow       float64 `bson:"avg_daily_cash_flow" json:"avg_daily_cash_flow"`
	ProjectedBalance30d    float64 `bson:"projected_balance_30d" json:"projected_balance_30d"`
	PayablesDue30d         float64 `bson:"payables_due_30d" json:"payables_due_30d"`
	PostObligationsBalance float64 `bson:"post_obligations_balance" json:"post_obligations_balance"`
	DaysUntilCashZero      float64 `bson:"days_until_cash_zero" json:"days_until_cash_zero"`
	CashAtRisk             bool    `bson:"cash_at_risk" json:"cash_at_risk"`

	ActiveClients   int     `bson:"active_clients" json:"active_clients"`
	ActiveBuyers30d int     `bson:"active_buyers_30d" json:"active_buyers_30d"`
	InactiveClients int     `bson:"inactive_clients" json:"inactive_clients"`
	ChurnRatePct    float64 `bson:"churn_rate_pct" json:"churn_rate_pct"`
	HighChurn       bool    `bson:"high_churn" json:"high_churn"`

	PurchaseCostPerKg7d      float64 `bson:"purchase_cost_per_kg_7d" json:"purchase_cost_per_kg_7d"`
	PurchaseCostPerKg30d     float64 `bson:"purchase_cost_per_kg_30d" json:"purchase_cost_per_kg_30d"`
	PurchaseCostVariationPct float64 `bson:"purchase_cost_variation_pct" json:"purchase_cost_variation_pct"`
	PurchaseCostTrend        Trend   `bson:"purchase_cost_trend" json:"purchase_cost_trend"`
	SuggestedPurchaseInDays  float64 `bson:"suggested_purchase_in_days" json:"suggested_purchase_in_days"`

	SalesCount7d    int     `bson:"sales_count_7d" json:"sales_count_7d"`
	SalesCount30d   int     `bson:"sales_count_30d" json:"sales_count_30d"`
	AvgKgPerSale7d  float64 `bson:"avg_kg_per_sale_7d" json:"avg_kg_per_sale_7d"`
	AvgKgPerSale30d float64 `bson:"avg_kg_per_sale_30d" json:"avg_kg_per_sale_30d"`
}

// Urgency labels how fast an item must be sold.
type Urgency string

const (
	UrgencyNormal    Urgency = "NORMAL"
	UrgencyAttention Urgency = "ATTENTION"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyCritical  Urgency = "CRITICAL"
	UrgencyEmergency Urgency = "EMERGENCY"
)

// PriceQuote is the suggested selling price for one available item.
type PriceQuote struct {
	ItemID         string  `bson:"item_id" json:"item_id"`
	LotID          string  `bson:"lot_id" json:"lot_id"`
	Cut            CutType `bson:"cut" json:"cut"`
	AgeDays        int     `bson:"age_days" json:"age_days"`
	WeightKg       float64 `bson:"weight_kg" json:"weight_kg"`
	CostPerKg      float64 `bson:"cost_per_kg" json:"cost_per_kg"`
	BasePrice      float64 `bson:"base_price" json:"base_price"`
	SuggestedPrice float64 `bson:"suggested_price" json:"suggested_price"`
	FloorPrice     float64 `bson:"floor_price" json:"floor_price"`
	DiscountPct    float64 `bson:"discount_pct" json:"discount_pct"`
	MarginPct      float64 `bson:"margin_pct" json:"margin_pct"`
	Urgency        Urgency `bson:"urgency" json:"urgency"`
}

// Tier is the loyalty/risk class of a client.
type Tier string

const (
	TierNew      Tier = "NEW"
	TierAtRisk   Tier = "AT_RISK"
	TierInactive Tier = "INACTIVE"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
	TierBronze   Tier = "BRONZE"
)

// Risk is the credit/attrition exposure of a client.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// ClientScore is the RFM classification of one active client.
type ClientScore struct {
	ClientID       string  `bson:"client_id" json:"client_id"`
	Name           string  `bson:"name" json:"name"`
	Recency        int     `bson:"recency" json:"recency"`
	Frequency      int     `bson:"frequency" json:"frequency"`
	Monetary       float64 `bson:"monetary" json:"monetary"`
	RecencyScore   int     `bson:"recency_score" json:"recency_score"`
	FrequencyScore int     `bson:"frequency_score" json:"frequency_score"`
	MonetaryScore  int     `bson:"monetary_score" json:"monetary_score"`
	RFMScore       int     `bson:"rfm_score" json:"rfm_score"`
	Tier           Tier    `bson:"tier" json:"tier"`
	Risk           Risk    `bson:"risk" json:"risk"`
	Recommendation string  `bson:"recommendation" json:"recommendation"`
}
