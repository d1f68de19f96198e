package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

var now = time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func salesFor(client string, n int, amountEach float64, firstAgo int) []models.Sale {
	out := make([]models.Sale, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Sale{ClientID: client, WeightKg: 1, UnitPrice: amountEach, Date: daysAgo(firstAgo + i), PaymentStatus: models.PaymentPaid})
	}
	return out
}

func byID(scores []models.ClientScore) map[string]models.ClientScore {
	out := make(map[string]models.ClientScore, len(scores))
	for _, s := range scores {
		out[s.ClientID] = s
	}
	return out
}

func TestScore_NewClientWithoutSales(t *testing.T) {
	snap := models.Snapshot{Clients: []models.Client{
		{ID: "c1", Name: "Newcomer", Balance: 10000, CreditLimit: 100, Active: true},
	}}

	scores := NewEngine(DefaultConfig()).Score(snap, now)

	require.Len(t, scores, 1)
	assert.Equal(t, models.TierNew, scores[0].Tier)
	assert.Equal(t, models.NoDataDays, scores[0].Recency)
	assert.Equal(t, 3, scores[0].RFMScore)
	assert.Equal(t, Recommendation(models.TierNew), scores[0].Recommendation)
}

func TestScore_DebtorBeatsGold(t *testing.T) {
	var sales []models.Sale
	sales = append(sales, salesFor("c1", 10, 2000, 45)...)
	snap := models.Snapshot{
		Clients: []models.Client{{ID: "c1", Name: "Açougue Central", Balance: 500, CreditLimit: 5000, Active: true}},
		Sales:   sales,
	}

	score := NewEngine(DefaultConfig()).Score(snap, now)[0]

	assert.Equal(t, 45, score.Recency)
	assert.GreaterOrEqual(t, score.RFMScore, 12)
	assert.Equal(t, models.TierAtRisk, score.Tier)
	assert.Equal(t, models.RiskHigh, score.Risk)
}

func TestScore_TierLadder(t *testing.T) {
	var sales []models.Sale
	sales = append(sales, salesFor("gold", 8, 1250, 2)...)
	sales = append(sales, salesFor("silver", 3, 200, 10)...)
	sales = append(sales, salesFor("bronze", 1, 100, 40)...)
	sales = append(sales, salesFor("inactive", 2, 5000, 70)...)
	sales = append(sales, models.Sale{ClientID: "bronze", WeightKg: 1, UnitPrice: 90000, Date: daysAgo(1), PaymentStatus: models.PaymentReversed})

	snap := models.Snapshot{
		Clients: []models.Client{
			{ID: "bronze", Active: true},
			{ID: "gold", Active: true, CreditLimit: 10000},
			{ID: "inactive", Active: true},
			{ID: "silver", Active: true},
			{ID: "ghost", Active: false},
		},
		Sales: sales,
	}

	scores := NewEngine(DefaultConfig()).Score(snap, now)
	require.Len(t, scores, 4)
	got := byID(scores)

	assert.Equal(t, models.TierGold, got["gold"].Tier)
	assert.Equal(t, 15, got["gold"].RFMScore)
	assert.Equal(t, models.RiskLow, got["gold"].Risk)

	assert.Equal(t, models.TierSilver, got["silver"].Tier)
	assert.Equal(t, 9, got["silver"].RFMScore)

	assert.Equal(t, models.TierBronze, got["bronze"].Tier)
	assert.Equal(t, 40, got["bronze"].Recency)
	assert.InDelta(t, 100, got["bronze"].Monetary, 1e-9)
	assert.Equal(t, models.RiskMedium, got["bronze"].Risk)

	assert.Equal(t, models.TierInactive, got["inactive"].Tier)

	assert.Equal(t, "gold", scores[0].ClientID)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].RFMScore, scores[i].RFMScore)
	}
}

func TestScore_Breakpoints(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	for days, want := range map[int]int{0: 5, 7: 5, 8: 4, 15: 4, 30: 3, 31: 2, 60: 2, 61: 1, 999: 1} {
		assert.Equal(t, want, engine.recencyScore(days), "recency %d", days)
	}
	for n, want := range map[float64]int{0: 1, 1: 2, 3: 3, 5: 4, 8: 5, 20: 5} {
		assert.Equal(t, want, atLeast(engine.cfg.Frequency, n), "frequency %v", n)
	}
	for amount, want := range map[float64]int{0: 1, 499.99: 1, 500: 2, 2000: 3, 5000: 4, 10000: 5} {
		assert.Equal(t, want, atLeast(engine.cfg.Monetary, amount), "monetary %v", amount)
	}
}

func TestScore_OverLimitIsHighRisk(t *testing.T) {
	snap := models.Snapshot{
		Clients: []models.Client{{ID: "c1", Active: true, CreditLimit: 1000, Balance: 1500}},
		Sales:   salesFor("c1", 1, 100, 1),
	}

	score := NewEngine(DefaultConfig()).Score(snap, now)[0]
	assert.Equal(t, models.TierSilver, score.Tier)
	assert.Equal(t, models.RiskHigh, score.Risk)
}

func TestScore_Deterministic(t *testing.T) {
	snap := models.Snapshot{
		Clients: []models.Client{{ID: "b", Active: true}, {ID: "a", Active: true}},
	}
	engine := NewEngine(DefaultConfig())
	first := engine.Score(snap, now)
	assert.Equal(t, first, engine.Score(snap, now))
	assert.Equal(t, "a", first[0].ClientID)
}
