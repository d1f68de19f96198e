package triggers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

func input(snap models.Snapshot) Input {
	return Input{Snapshot: snap.Normalize(), Now: now}
}

func TestColdStorageRule_Buckets(t *testing.T) {
	snap := models.Snapshot{
		StockItems: []models.StockItem{
			{ID: "a", LotID: "b1", WeightKg: 10, EntryDate: daysAgo(9)},
			{ID: "b", LotID: "b1", WeightKg: 5, EntryDate: daysAgo(8)},
			{ID: "c", LotID: "b1", WeightKg: 4, EntryDate: daysAgo(6)},
			{ID: "d", LotID: "unknown", WeightKg: 6, EntryDate: daysAgo(7)},
			{ID: "e", LotID: "b1", WeightKg: 50, EntryDate: daysAgo(2)},
			{ID: "f", LotID: "b1", WeightKg: 99, EntryDate: daysAgo(12), Status: models.StockSold},
		},
		Batches: []models.Batch{{ID: "b1", RealCostPerKg: 20}},
	}

	alerts, err := ColdStorageRule{cfg: DefaultConfig()}.Evaluate(input(snap))
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, models.SeverityBlock, alerts[0].Severity)
	assert.Equal(t, "cold_storage_aging:critical:2026-10-18", alerts[0].TriggerID)
	assert.Contains(t, alerts[0].Message, "2 piece(s)")
	assert.Contains(t, alerts[0].Message, "15.0 kg, 300.00 value at risk")

	assert.Equal(t, models.SeverityAlert, alerts[1].Severity)
	assert.Equal(t, "cold_storage_aging:warning:2026-10-18", alerts[1].TriggerID)
	assert.Contains(t, alerts[1].Message, "10.0 kg, 80.00 value at risk")
}

func TestColdStorageRule_FreshStockIsQuiet(t *testing.T) {
	snap := models.Snapshot{StockItems: []models.StockItem{{ID: "a", WeightKg: 10, EntryDate: daysAgo(5)}}}
	alerts, err := ColdStorageRule{cfg: DefaultConfig()}.Evaluate(input(snap))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestOverdueReceivablesRule(t *testing.T) {
	pending := func(client string, amount float64, dueAgo int) models.Sale {
		return models.Sale{
			ClientID: client, WeightKg: 1, UnitPrice: amount, Date: daysAgo(dueAgo + 7),
			DueDate: daysAgo(dueAgo), PaymentTermDays: 7, PaymentStatus: models.PaymentPending,
		}
	}

	t.Run("escalates past delinquency threshold", func(t *testing.T) {
		snap := models.Snapshot{Sales: []models.Sale{
			pending("c1", 100, 0),
			pending("c1", 50, -1),
			pending("c2", 300, 3),
			pending("c3", 700, 10),
			{ClientID: "c4", WeightKg: 1, UnitPrice: 999, Date: daysAgo(30), PaymentTermDays: 7, PaymentStatus: models.PaymentPaid},
			{ClientID: "c5", WeightKg: 1, UnitPrice: 999, Date: daysAgo(30), PaymentTermDays: 0, PaymentStatus: models.PaymentPending},
			{ClientID: "c6", WeightKg: 1, UnitPrice: 999, Date: daysAgo(30), PaymentTermDays: 7, PaymentStatus: models.PaymentReversed},
		}}

		alerts, err := OverdueReceivablesRule{cfg: DefaultConfig()}.Evaluate(input(snap))
		require.NoError(t, err)
		require.Len(t, alerts, 2)

		late := alerts[0]
		assert.Equal(t, models.SeverityCritical, late.Severity)
		assert.Contains(t, late.Message, "2 sale(s) from 2 client(s) overdue, 1000.00 outstanding")
		assert.Contains(t, late.Message, "Worst delay 10 days")
		assert.Contains(t, late.ActionHint, "Suspend credit")

		soon := alerts[1]
		assert.Equal(t, models.SeverityAlert, soon.Severity)
		assert.Equal(t, "overdue_receivables:due_soon:2026-10-18", soon.TriggerID)
		assert.Contains(t, soon.Message, "2 sale(s) due within 1 day(s), 150.00 to collect")
	})

	t.Run("short delays do not suspend credit", func(t *testing.T) {
		snap := models.Snapshot{Sales: []models.Sale{pending("c1", 100, 4)}}
		alerts, err := OverdueReceivablesRule{cfg: DefaultConfig()}.Evaluate(input(snap))
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.NotContains(t, alerts[0].ActionHint, "Suspend")
	})

	t.Run("far future due dates are quiet", func(t *testing.T) {
		snap := models.Snapshot{Sales: []models.Sale{pending("c1", 100, -5)}}
		alerts, err := OverdueReceivablesRule{cfg: DefaultConfig()}.Evaluate(input(snap))
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})
}

func TestCashFloorRule(t *testing.T) {
	ledger := func(balance float64) []models.Transaction {
		return []models.Transaction{
			{Date: daysAgo(5), Direction: models.DirectionIn, Category: models.CategorySale, Amount: balance + 1000},
			{Date: daysAgo(4), Direction: models.DirectionOut, Category: models.CategoryExpense, Amount: 1000},
			{Date: daysAgo(3), Direction: models.DirectionIn, Category: models.CategoryReversal, Amount: 1e6},
		}
	}
	rule := CashFloorRule{cfg: DefaultConfig()}

	t.Run("below emergency floor blocks", func(t *testing.T) {
		alerts, err := rule.Evaluate(input(models.Snapshot{Transactions: ledger(3000)}))
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.SeverityBlock, alerts[0].Severity)
		assert.Contains(t, alerts[0].Message, "Cash balance 3000.00")
	})

	t.Run("below purchase cover alerts with upcoming payables", func(t *testing.T) {
		snap := models.Snapshot{
			Transactions: ledger(10000),
			Batches: []models.Batch{
				{ID: "b1", Status: models.BatchOpen, PurchaseCost: 8000, ReceivedAt: daysAgo(1)},
				{ID: "b2", Status: models.BatchOpen, PurchaseCost: 12000, ReceivedAt: daysAgo(2)},
				{ID: "b3", Status: models.BatchOpen, PurchaseCost: 10000, ReceivedAt: daysAgo(3)},
				{ID: "b4", Status: models.BatchOpen, PurchaseCost: 90000, ReceivedAt: daysAgo(30)},
				{ID: "b5", Status: models.BatchClosed, PurchaseCost: 90000, ReceivedAt: daysAgo(0)},
			},
			Payables: []models.Payable{
				{Amount: 400, DueDate: now.AddDate(0, 0, 2)},
				{Amount: 600, DueDate: now.AddDate(0, 0, 7)},
				{Amount: 900, DueDate: now.AddDate(0, 0, 8)},
				{Amount: 100, DueDate: now.AddDate(0, 0, 1), Status: models.PayablePaid},
			},
		}
		alerts, err := rule.Evaluate(input(snap))
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.SeverityAlert, alerts[0].Severity)
		assert.Contains(t, alerts[0].Message, "below 15000.00")
		assert.Contains(t, alerts[0].Message, "Payables due in 7 days: 1000.00")
	})

	t.Run("default baseline without open batches", func(t *testing.T) {
		alerts, err := rule.Evaluate(input(models.Snapshot{Transactions: ledger(29000)}))
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Contains(t, alerts[0].Message, "below 30000.00")

		alerts, err = rule.Evaluate(input(models.Snapshot{Transactions: ledger(31000)}))
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("configured baseline", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DefaultBatchCostBaseline = 10000
		alerts, err := CashFloorRule{cfg: cfg}.Evaluate(input(models.Snapshot{Transactions: ledger(16000)}))
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("empty ledger is quiet", func(t *testing.T) {
		alerts, err := rule.Evaluate(input(models.Snapshot{}))
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})
}

func TestClientAttritionRule(t *testing.T) {
	sale := func(client string, ago int) models.Sale {
		return models.Sale{ClientID: client, WeightKg: 1, UnitPrice: 10, Date: daysAgo(ago), PaymentStatus: models.PaymentPaid}
	}

	snap := models.Snapshot{
		Clients: []models.Client{
			{ID: "vip", Name: "Churrascaria Boi", CreditLimit: 10000, Active: true},
			{ID: "small-recent", Name: "Mercadinho", CreditLimit: 1000, Active: true},
			{ID: "small-old", Name: "Bar do Zé", CreditLimit: 2000, Active: true},
			{ID: "gone", Name: "Closed Shop", CreditLimit: 50000, Active: false},
			{ID: "never", Name: "Prospect", CreditLimit: 90000, Active: true},
		},
		Sales: []models.Sale{
			sale("vip", 20),
			sale("small-recent", 20),
			sale("small-old", 40),
			sale("small-old", 80),
			sale("gone", 90),
			{ClientID: "small-recent", WeightKg: 1, UnitPrice: 1, Date: daysAgo(60), PaymentStatus: models.PaymentReversed},
		},
	}

	alerts, err := ClientAttritionRule{cfg: DefaultConfig()}.Evaluate(input(snap))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityAlert, alerts[0].Severity)
	assert.Equal(t, "client_attrition:2026-10-18", alerts[0].TriggerID)
	assert.Equal(t, "2 client(s) past their buying cadence: Churrascaria Boi (20 days), Bar do Zé (40 days).", alerts[0].Message)
}

func TestClientAttritionRule_TopN(t *testing.T) {
	var snap models.Snapshot
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		snap.Clients = append(snap.Clients, models.Client{ID: id, Name: id, CreditLimit: float64(100 * (i + 1)), Active: true})
		snap.Sales = append(snap.Sales, models.Sale{ClientID: id, WeightKg: 1, UnitPrice: 1, Date: daysAgo(45)})
	}

	alerts, err := ClientAttritionRule{cfg: DefaultConfig()}.Evaluate(input(snap))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "7 client(s) past their buying cadence: g (45 days), f (45 days), e (45 days), d (45 days), c (45 days). And 2 more.", alerts[0].Message)
}

func TestPayablesDueRule(t *testing.T) {
	rule := PayablesDueRule{cfg: DefaultConfig()}

	t.Run("due today only", func(t *testing.T) {
		snap := models.Snapshot{Payables: []models.Payable{
			{Amount: 500, DueDate: now},
			{Amount: 900, DueDate: now.AddDate(0, 0, 1)},
		}}
		alerts, err := rule.Evaluate(input(snap))
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.SeverityAlert, alerts[0].Severity)
		assert.Contains(t, alerts[0].Message, "1 payable(s) totaling 500.00")
	})

	t.Run("past due escalates", func(t *testing.T) {
		snap := models.Snapshot{Payables: []models.Payable{
			{Amount: 500, DueDate: now},
			{Amount: 300, DueDate: daysAgo(2), Status: models.PayablePartial},
			{Amount: 200, DueDate: daysAgo(3), Status: models.PayableLate},
			{Amount: 700, DueDate: daysAgo(5)},
			{Amount: 100, DueDate: daysAgo(1), Status: models.PayablePaid},
		}}
		alerts, err := rule.Evaluate(input(snap))
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
		assert.Equal(t, "3 payable(s) totaling 1000.00 due today or up to 3 days ago, 2 past due.", alerts[0].Message)
	})

	t.Run("nothing due", func(t *testing.T) {
		alerts, err := rule.Evaluate(input(models.Snapshot{}))
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})
}

func TestDailyBriefing_Summary(t *testing.T) {
	snap := models.Snapshot{
		StockItems: []models.StockItem{
			{ID: "a", WeightKg: 120.5},
			{ID: "b", WeightKg: 80, Status: models.StockSold},
		},
		Sales: []models.Sale{
			{WeightKg: 10, UnitPrice: 30, Date: now.Add(-2 * time.Hour)},
			{WeightKg: 5, UnitPrice: 30, Date: now.Add(-1 * time.Hour), PaymentStatus: models.PaymentReversed},
			{WeightKg: 7, UnitPrice: 30, Date: daysAgo(1)},
		},
		Transactions: []models.Transaction{
			{Date: daysAgo(1), Direction: models.DirectionIn, Category: models.CategorySale, Amount: 2500},
			{Date: daysAgo(1), Direction: models.DirectionOut, Category: models.CategoryFreight, Amount: 500},
		},
		Orders: []models.ScheduledOrder{
			{ID: "o1", DeliveryDate: now.Add(3 * time.Hour), WeightKg: 40},
			{ID: "o2", DeliveryDate: now.Add(4 * time.Hour), WeightKg: 40, Status: models.OrderDelivered},
			{ID: "o3", DeliveryDate: now.AddDate(0, 0, 1), WeightKg: 40},
		},
	}

	b := Summarize(input(snap))
	assert.Equal(t, Briefing{CashBalance: 2000, AvailableKg: 120.5, SalesToday: 1, RevenueToday: 300, DeliveriesOpen: 1, DeliveryKg: 40}, b)
}
