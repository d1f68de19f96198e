package predictive

import (
	"math"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// PercentChange returns the change from base to current in percent, using base as denominator.
// A zero base yields 100 when current is positive and 0 otherwise.
func PercentChange(base, current float64) float64 {
	if base == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - base) / math.Abs(base) * 100
}

// Classify maps a percent change onto a trend using a symmetric threshold.
func Classify(pct, threshold float64) models.Trend {
	switch {
	case pct > threshold:
		return models.TrendRising
	case pct < -threshold:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// Runway divides a stock by its daily consumption. Without consumption it returns
// models.NoDataDays when there is stock left and 0 when there is none.
func Runway(stock, perDay float64) float64 {
	if perDay <= 0 {
		if stock > 0 {
			return models.NoDataDays
		}
		return 0
	}
	return stock / perDay
}

// Slope is the least-squares slope of ys against their index.
func Slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY float64
	for i, y := range ys {
		sumX += float64(i)
		sumY += y
	}
	meanX, meanY := sumX/n, sumY/n

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	return safeDiv(num, den, 0)
}

func safeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
