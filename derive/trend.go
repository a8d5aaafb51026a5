package derive

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
)

const (
	// DefaultTrendDays is the window used when none is requested.
	DefaultTrendDays = 30
	// MaxTrendDays bounds the window; longer requests are clamped.
	MaxTrendDays = 366
)

// TrendPoint is one day of the net trend. Acc is the running sum of
// Earned across the window.
type TrendPoint struct {
	Date   string          `json:"date"`
	Earned decimal.Decimal `json:"earned"`
	Spent  decimal.Decimal `json:"spent"`
	Net    decimal.Decimal `json:"net"`
	Acc    decimal.Decimal `json:"acc"`
}

// NetTrend buckets bonus events and sales by day over the last days
// days ending today (inclusive). A bonus event lands on its payout
// date, or its creation date when unpaid.
func NetTrend(bookings []core.Booking, sales []core.Sale, days int, today time.Time) []TrendPoint {
	if days <= 0 {
		days = DefaultTrendDays
	}
	days = min(days, MaxTrendDays)
	if today.IsZero() {
		today = core.Today()
	}
	today = core.StartOfDay(today)

	earned := make(map[string]decimal.Decimal)
	for _, b := range bookings {
		if !b.IsBonusEvent() {
			continue
		}
		d := b.RewardPaidOn
		if d == "" {
			d = b.CreatedAt
		}
		k := dayKey(d)
		earned[k] = earned[k].Add(b.RewardAmount)
	}
	spent := make(map[string]decimal.Decimal)
	for _, sale := range sales {
		k := dayKey(sale.Date)
		spent[k] = spent[k].Add(sale.Amount)
	}

	out := make([]TrendPoint, 0, days)
	acc := decimal.Zero
	for i := days - 1; i >= 0; i-- {
		k := today.AddDate(0, 0, -i).Format(core.ISODate)
		pt := TrendPoint{Date: k, Earned: earned[k], Spent: spent[k]}
		pt.Net = pt.Earned.Sub(pt.Spent)
		acc = acc.Add(pt.Earned)
		pt.Acc = acc
		out = append(out, pt)
	}
	return out
}

func dayKey(s string) string {
	if len(s) > len(core.ISODate) {
		return s[:len(core.ISODate)]
	}
	return s
}
