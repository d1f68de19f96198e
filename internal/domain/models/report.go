package models

import "time"

// DailyReport is the persisted record of the insights computed for one calendar day.
type DailyReport struct {
	Date         string             `bson:"date" json:"date"`
	Alerts       []Alert            `bson:"alerts" json:"alerts"`
	Forecast     PredictiveSnapshot `bson:"forecast" json:"forecast"`
	PriceQuotes  []PriceQuote       `bson:"price_quotes" json:"price_quotes"`
	ClientScores []ClientScore      `bson:"client_scores" json:"client_scores"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// BriefingState is the host-owned record of the last calendar day a briefing was shown.
type BriefingState struct {
	Recipient        string    `bson:"_id" json:"recipient"`
	LastBriefingDate string    `bson:"last_briefing_date" json:"last_briefing_date"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}
