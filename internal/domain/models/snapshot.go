package models

import (
	"math"
	"strings"
	"time"
)

// MaxShelfLifeDays is the number of days after entry at which a stock item is considered spoiled.
const MaxShelfLifeDays = 8

// DefaultUnitWeightKg is the conversion factor used when a batch does not declare one (one arroba).
const DefaultUnitWeightKg = 15.0

// CutType enumerates the physical cuts a stock item can be.
type CutType string

const (
	CutWhole        CutType = "WHOLE"
	CutFrontQuarter CutType = "FRONT_QUARTER"
	CutHindQuarter  CutType = "HIND_QUARTER"
)

// StockStatus tracks whether a piece is still in the cold room.
type StockStatus string

const (
	StockAvailable StockStatus = "AVAILABLE"
	StockSold      StockStatus = "SOLD"
)

// BatchStatus tracks whether a received lot is still being worked.
type BatchStatus string

const (
	BatchOpen   BatchStatus = "OPEN"
	BatchClosed BatchStatus = "CLOSED"
)

// PaymentStatus captures the settlement state of a sale.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentReversed PaymentStatus = "REVERSED"
)

// Direction is the cash flow direction of a ledger entry.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Category classifies a ledger entry.
type Category string

const (
	CategorySale       Category = "SALE"
	CategoryReceipt    Category = "RECEIPT"
	CategoryPurchase   Category = "PURCHASE"
	CategoryFreight    Category = "FREIGHT"
	CategoryPayroll    Category = "PAYROLL"
	CategoryExpense    Category = "EXPENSE"
	CategoryTax        Category = "TAX"
	CategoryWithdrawal Category = "WITHDRAWAL"
	CategoryReversal   Category = "REVERSAL"
)

var recognizedCategories = map[Category]bool{
	CategorySale:       true,
	CategoryReceipt:    true,
	CategoryPurchase:   true,
	CategoryFreight:    true,
	CategoryPayroll:    true,
	CategoryExpense:    true,
	CategoryTax:        true,
	CategoryWithdrawal: true,
	CategoryReversal:   true,
}

// PayableStatus captures the settlement state of an outgoing obligation.
type PayableStatus string

const (
	PayablePending PayableStatus = "PENDING"
	PayablePaid    PayableStatus = "PAID"
	PayablePartial PayableStatus = "PARTIAL"
	PayableLate    PayableStatus = "LATE"
)

// OrderStatus captures the lifecycle of a scheduled delivery.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// StockItem is a physical piece of product in the cold room.
type StockItem struct {
	ID        string      `bson:"_id" json:"id" yaml:"id"`
	LotID     string      `bson:"lot_id" json:"lot_id" yaml:"lot_id"`
	Cut       CutType     `bson:"cut" json:"cut" yaml:"cut"`
	WeightKg  float64     `bson:"weight_kg" json:"weight_kg" yaml:"weight_kg"`
	EntryDate time.Time   `bson:"entry_date" json:"entry_date" yaml:"entry_date"`
	Status    StockStatus `bson:"status" json:"status" yaml:"status"`
}

// AgeDays returns the whole days elapsed since the item entered the cold room.
func (s StockItem) AgeDays(now time.Time) int {
	return DaysSince(s.EntryDate, now)
}

// Available reports whether the item can still be sold.
func (s StockItem) Available() bool {
	return s.Status == StockAvailable
}

// Batch is a received lot of animals or product.
type Batch struct {
	ID                 string      `bson:"_id" json:"id" yaml:"id"`
	SupplierID         string      `bson:"supplier_id" json:"supplier_id" yaml:"supplier_id"`
	ReceivedAt         time.Time   `bson:"received_at" json:"received_at" yaml:"received_at"`
	TotalWeightKg      float64     `bson:"total_weight_kg" json:"total_weight_kg" yaml:"total_weight_kg"`
	PurchaseCost       float64     `bson:"purchase_cost" json:"purchase_cost" yaml:"purchase_cost"`
	ExtraCosts         float64     `bson:"extra_costs" json:"extra_costs" yaml:"extra_costs"`
	RealCostPerKg      float64     `bson:"real_cost_per_kg" json:"real_cost_per_kg" yaml:"real_cost_per_kg"`
	PricePerUnitWeight float64     `bson:"price_per_unit_weight" json:"price_per_unit_weight" yaml:"price_per_unit_weight"`
	UnitWeightKg       float64     `bson:"unit_weight_kg" json:"unit_weight_kg" yaml:"unit_weight_kg"`
	Status             BatchStatus `bson:"status" json:"status" yaml:"status"`
}

// Sale is a completed transaction line.
type Sale struct {
	ID              string        `bson:"_id" json:"id" yaml:"id"`
	ClientID        string        `bson:"client_id" json:"client_id" yaml:"client_id"`
	StockItemID     string        `bson:"stock_item_id" json:"stock_item_id" yaml:"stock_item_id"`
	WeightKg        float64       `bson:"weight_kg" json:"weight_kg" yaml:"weight_kg"`
	UnitPrice       float64       `bson:"unit_price" json:"unit_price" yaml:"unit_price"`
	Date            time.Time     `bson:"date" json:"date" yaml:"date"`
	PaymentMethod   string        `bson:"payment_method" json:"payment_method" yaml:"payment_method"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"payment_status" yaml:"payment_status"`
	DueDate         time.Time     `bson:"due_date" json:"due_date" yaml:"due_date"`
	PaymentTermDays int           `bson:"payment_term_days" json:"payment_term_days" yaml:"payment_term_days"`
}

// Amount is the total value of the sale line.
func (s Sale) Amount() float64 {
	return s.WeightKg * s.UnitPrice
}

// Reversed reports whether the sale was cancelled and must be ignored by every aggregate.
func (s Sale) Reversed() bool {
	return s.PaymentStatus == PaymentReversed
}

// Client is a buying counterparty.
type Client struct {
	ID                 string  `bson:"_id" json:"id" yaml:"id"`
	Name               string  `bson:"name" json:"name" yaml:"name"`
	Contact            string  `bson:"contact" json:"contact" yaml:"contact"`
	CreditLimit        float64 `bson:"credit_limit" json:"credit_limit" yaml:"credit_limit"`
	Balance            float64 `bson:"balance" json:"balance" yaml:"balance"`
	IdealFrequencyDays int     `bson:"ideal_frequency_days" json:"ideal_frequency_days" yaml:"ideal_frequency_days"`
	Active             bool    `bson:"active" json:"active" yaml:"active"`
}

// Transaction is a cash ledger entry.
type Transaction struct {
	ID        string    `bson:"_id" json:"id" yaml:"id"`
	Date      time.Time `bson:"date" json:"date" yaml:"date"`
	Direction Direction `bson:"direction" json:"direction" yaml:"direction"`
	Category  Category  `bson:"category" json:"category" yaml:"category"`
	Amount    float64   `bson:"amount" json:"amount" yaml:"amount"`
}

// Counts reports whether the entry participates in balances and flows.
// Reversal entries are excluded everywhere, including the raw running balance.
func (t Transaction) Counts() bool {
	return recognizedCategories[t.Category] && t.Category != CategoryReversal
}

// Signed returns the amount with the sign of its direction, or zero when the entry does not count.
func (t Transaction) Signed() float64 {
	if !t.Counts() {
		return 0
	}
	switch t.Direction {
	case DirectionIn:
		return t.Amount
	case DirectionOut:
		return -t.Amount
	default:
		return 0
	}
}

// Payable is a scheduled outgoing obligation.
type Payable struct {
	ID          string        `bson:"_id" json:"id" yaml:"id"`
	Description string        `bson:"description" json:"description" yaml:"description"`
	Amount      float64       `bson:"amount" json:"amount" yaml:"amount"`
	DueDate     time.Time     `bson:"due_date" json:"due_date" yaml:"due_date"`
	Status      PayableStatus `bson:"status" json:"status" yaml:"status"`
}

// Unpaid reports whether the obligation is still owed.
func (p Payable) Unpaid() bool {
	return p.Status != PayablePaid
}

// ScheduledOrder is a future delivery commitment.
type ScheduledOrder struct {
	ID           string      `bson:"_id" json:"id" yaml:"id"`
	ClientID     string      `bson:"client_id" json:"client_id" yaml:"client_id"`
	DeliveryDate time.Time   `bson:"delivery_date" json:"delivery_date" yaml:"delivery_date"`
	WeightKg     float64     `bson:"weight_kg" json:"weight_kg" yaml:"weight_kg"`
	Status       OrderStatus `bson:"status" json:"status" yaml:"status"`
}

// Snapshot is the read-only view of every collection an engine reads.
type Snapshot struct {
	StockItems   []StockItem      `json:"stock_items" yaml:"stock_items"`
	Batches      []Batch          `json:"batches" yaml:"batches"`
	Sales        []Sale           `json:"sales" yaml:"sales"`
	Clients      []Client         `json:"clients" yaml:"clients"`
	Transactions []Transaction    `json:"transactions" yaml:"transactions"`
	Payables     []Payable        `json:"payables" yaml:"payables"`
	Orders       []ScheduledOrder `json:"orders" yaml:"orders"`
}

// Normalize returns a copy of the snapshot with defaults applied and malformed values clamped.
//
// Defaults:
//   - negative or non-finite quantities and amounts become 0
//   - empty stock status is AVAILABLE, unknown cut is WHOLE
//   - empty sale status is PENDING, zero due date is sale date + term
//   - batch unit weight defaults to DefaultUnitWeightKg and the real cost per kg
//     is derived from purchase and extra costs when missing
//   - empty payable status is PENDING, empty order status is OPEN
//
// Normalize is idempotent and never mutates the receiver's slices.
func (s Snapshot) Normalize() Snapshot {
	out := Snapshot{
		StockItems:   make([]StockItem, len(s.StockItems)),
		Batches:      make([]Batch, len(s.Batches)),
		Sales:        make([]Sale, len(s.Sales)),
		Clients:      make([]Client, len(s.Clients)),
		Transactions: make([]Transaction, len(s.Transactions)),
		Payables:     make([]Payable, len(s.Payables)),
		Orders:       make([]ScheduledOrder, len(s.Orders)),
	}

	for i, item := range s.StockItems {
		item.WeightKg = nonNegative(item.WeightKg)
		item.Status = StockStatus(upper(string(item.Status)))
		if item.Status == "" {
			item.Status = StockAvailable
		}
		item.Cut = CutType(upper(string(item.Cut)))
		switch item.Cut {
		case CutWhole, CutFrontQuarter, CutHindQuarter:
		default:
			item.Cut = CutWhole
		}
		out.StockItems[i] = item
	}

	for i, b := range s.Batches {
		b.TotalWeightKg = nonNegative(b.TotalWeightKg)
		b.PurchaseCost = nonNegative(b.PurchaseCost)
		b.ExtraCosts = nonNegative(b.ExtraCosts)
		b.RealCostPerKg = nonNegative(b.RealCostPerKg)
		b.PricePerUnitWeight = nonNegative(b.PricePerUnitWeight)
		b.UnitWeightKg = nonNegative(b.UnitWeightKg)
		if b.UnitWeightKg == 0 {
			b.UnitWeightKg = DefaultUnitWeightKg
		}
		if b.RealCostPerKg == 0 && b.TotalWeightKg > 0 {
			b.RealCostPerKg = (b.PurchaseCost + b.ExtraCosts) / b.TotalWeightKg
		}
		b.Status = BatchStatus(upper(string(b.Status)))
		if b.Status == "" {
			b.Status = BatchOpen
		}
		out.Batches[i] = b
	}

	for i, sale := range s.Sales {
		sale.WeightKg = nonNegative(sale.WeightKg)
		sale.UnitPrice = nonNegative(sale.UnitPrice)
		if sale.PaymentTermDays < 0 {
			sale.PaymentTermDays = 0
		}
		sale.PaymentStatus = PaymentStatus(upper(string(sale.PaymentStatus)))
		if sale.PaymentStatus == "" {
			sale.PaymentStatus = PaymentPending
		}
		if sale.DueDate.IsZero() && !sale.Date.IsZero() {
			sale.DueDate = sale.Date.AddDate(0, 0, sale.PaymentTermDays)
		}
		out.Sales[i] = sale
	}

	for i, c := range s.Clients {
		c.CreditLimit = nonNegative(c.CreditLimit)
		if math.IsNaN(c.Balance) || math.IsInf(c.Balance, 0) {
			c.Balance = 0
		}
		if c.IdealFrequencyDays < 0 {
			c.IdealFrequencyDays = 0
		}
		out.Clients[i] = c
	}

	for i, t := range s.Transactions {
		t.Amount = nonNegative(t.Amount)
		t.Direction = Direction(upper(string(t.Direction)))
		t.Category = Category(upper(string(t.Category)))
		out.Transactions[i] = t
	}

	for i, p := range s.Payables {
		p.Amount = nonNegative(p.Amount)
		p.Status = PayableStatus(upper(string(p.Status)))
		if p.Status == "" {
			p.Status = PayablePending
		}
		out.Payables[i] = p
	}

	for i, o := range s.Orders {
		o.WeightKg = nonNegative(o.WeightKg)
		o.Status = OrderStatus(upper(string(o.Status)))
		if o.Status == "" {
			o.Status = OrderOpen
		}
		out.Orders[i] = o
	}

	return out
}

// BatchIndex maps batch identifiers to batches.
func (s Snapshot) BatchIndex() map[string]Batch {
	idx := make(map[string]Batch, len(s.Batches))
	for _, b := range s.Batches {
		idx[b.ID] = b
	}
	return idx
}

// CashBalance is the net of every counted ledger entry.
func (s Snapshot) CashBalance() float64 {
	var balance float64
	for _, t := range s.Transactions {
		balance += t.Signed()
	}
	return balance
}

// AvailableWeight sums the weight of every sellable item.
func (s Snapshot) AvailableWeight() float64 {
	var total float64
	for _, item := range s.StockItems {
		if item.Available() {
			total += item.WeightKg
		}
	}
	return total
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func upper(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
