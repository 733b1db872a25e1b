// Package scoring holds the pure arithmetic behind listing priority,
// auto-expiry, pricing and the read-time countdown fields.
package scoring

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
)

// MaxPriority caps the emergency priority score.
const MaxPriority = 150

var defaultDiscount = decimal.RequireFromString("0.8")

// Priority scores an emergency request from its urgency and, when present,
// how close its deadline is. Overdue deadlines land in the tightest bucket.
func Priority(level model.UrgencyLevel, neededBy *time.Time, now time.Time) int {
	score := urgencyScore(level)

	if neededBy != nil {
		hours := neededBy.Sub(now).Hours()
		switch {
		case hours <= 6:
			score += 50
		case hours <= 24:
			score += 30
		case hours <= 72:
			score += 10
		}
	}

	if score > MaxPriority {
		score = MaxPriority
	}
	return score
}

func urgencyScore(level model.UrgencyLevel) int {
	switch level {
	case model.UrgencyCritical:
		return 100
	case model.UrgencyHigh:
		return 75
	case model.UrgencyMedium:
		return 50
	default:
		return 25
	}
}

// AutoExpireHours is how long a request stays open before it counts as expired.
func AutoExpireHours(level model.UrgencyLevel) int {
	switch level {
	case model.UrgencyCritical:
		return 12
	case model.UrgencyHigh:
		return 24
	case model.UrgencyMedium:
		return 72
	case model.UrgencyLow:
		return 168
	default:
		return 72
	}
}

// EstimatedReach guesses how many vendors a broadcast will reach. Display only.
func EstimatedReach(city string, level model.UrgencyLevel) int {
	base := 20.0
	if city != "" {
		base = 50
	}

	multiplier := 1.0
	switch level {
	case model.UrgencyCritical:
		multiplier = 3
	case model.UrgencyHigh:
		multiplier = 2
	case model.UrgencyMedium:
		multiplier = 1.5
	}

	return int(math.Floor(base * multiplier))
}

// SurplusPriority derives a listing's priority from its condition and expiry.
// Stock expiring within a day is forced to urgent and needs_quick_sale.
func SurplusPriority(condition model.Condition, expiry *time.Time, now time.Time) (model.SurplusPriority, model.Condition) {
	priority := model.PriorityNormal
	if condition == model.ConditionNeedsQuickSale {
		priority = model.PriorityHigh
	}

	if expiry != nil {
		hours := expiry.Sub(now).Hours()
		switch {
		case hours <= 24:
			return model.PriorityUrgent, model.ConditionNeedsQuickSale
		case hours <= 72:
			priority = model.PriorityHigh
		}
	}
	return priority, condition
}

// DiscountedPrice returns the asking price and the buyer's savings. Without
// an explicit price the listing goes at 80%, rounded to two decimals; an
// explicit price is kept as given.
func DiscountedPrice(original float64, discounted *float64) (price, savings float64) {
	orig := decimal.NewFromFloat(original)

	disc := orig.Mul(defaultDiscount).Round(2)
	if discounted != nil {
		disc = decimal.NewFromFloat(*discounted)
	}

	return disc.InexactFloat64(), orig.Sub(disc).InexactFloat64()
}

// Deadline is the countdown to an emergency request's neededBy time.
func Deadline(neededBy, now time.Time) model.TimeRemaining {
	hours := hoursLeft(neededBy, now)
	return model.TimeRemaining{
		Hours:   int(math.Floor(hours)),
		Days:    int(math.Floor(hours / 24)),
		Overdue: hours <= 0,
	}
}

// Expiry is the countdown to an emergency request's auto-expiry.
func Expiry(expiresAt, now time.Time) model.ExpiryInfo {
	hours := hoursLeft(expiresAt, now)
	return model.ExpiryInfo{
		Hours:   int(math.Floor(hours)),
		Expired: hours <= 0,
	}
}

// Shelf is the countdown to a surplus listing's expiry date.
func Shelf(expiry, now time.Time) model.ShelfLife {
	hours := hoursLeft(expiry, now)
	return model.ShelfLife{
		Hours:   int(math.Floor(hours)),
		Days:    int(math.Floor(hours / 24)),
		Expired: hours <= 0,
	}
}

func hoursLeft(t, now time.Time) float64 {
	return math.Max(0, t.Sub(now).Hours())
}

// AutoVerifyConfidence is the proof-check confidence above which a price
// report counts as verified without review.
const AutoVerifyConfidence = 0.7

// AutoVerified reports whether a proof check is trusted on its own.
func AutoVerified(check model.ProofCheck) bool {
	return check.Success && check.Confidence > AutoVerifyConfidence
}

// PriceStats summarizes a series of prices.
type PriceStats struct {
	Average   float64
	Min       float64
	Max       float64
	Direction model.TrendDirection
}

// Trend computes statistics over prices given oldest first. The average and
// the percent change from first to last are rounded to two decimals. An
// empty series is all zeros.
func Trend(prices []float64) PriceStats {
	if len(prices) == 0 {
		return PriceStats{}
	}

	sum := decimal.Zero
	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromFloat(p))
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	stats := PriceStats{
		Average: sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(2).InexactFloat64(),
		Min:     lo,
		Max:     hi,
	}

	if len(prices) > 1 {
		first := decimal.NewFromFloat(prices[0])
		last := decimal.NewFromFloat(prices[len(prices)-1])
		stats.Direction.IsIncreasing = last.GreaterThan(first)
		if first.IsPositive() {
			stats.Direction.PercentChange = last.Sub(first).Div(first).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
	}
	return stats
}
