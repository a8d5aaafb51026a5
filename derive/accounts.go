package derive

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
)

// Tier is the loyalty classification of an account.
type Tier string

const (
	TierStandard Tier = "Standard"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// BlockReasonManual marks an operator-set block. It takes priority over
// any TECH explanation.
const BlockReasonManual = "MANUAL"

// Account is an account enriched with its booking and spend aggregates.
type Account struct {
	core.Account
	EmailKey string `json:"emailKey"`

	TotalBookings     int `json:"totalBookings"`
	ConfirmedBookings int `json:"confirmedBookings"`
	CancelledBookings int `json:"cancelledBookings"`
	PositiveBookings  int `json:"positiveBookings"`

	TotalBonuses   decimal.Decimal `json:"totalBonuses"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	NetBalance     decimal.Decimal `json:"netBalance"`
	ProgressToGold float64         `json:"progressToGold"`

	ActiveBookingsCount  int    `json:"activeBookingsCount"`
	LastBookingAt        string `json:"lastBookingAt"`
	DaysSinceLastBooking *int   `json:"daysSinceLastBooking"`
	CooldownOK           bool   `json:"cooldownOk"`

	TotalCancelled       int    `json:"totalCancelled"`
	ConsecutiveCancelled int    `json:"consecutiveCancelled"`
	TechBlocked          bool   `json:"techBlocked"`
	ManualBlocked        bool   `json:"manualBlocked"`
	IsBlocked            bool   `json:"isBlocked"`
	BlockReason          string `json:"blockReason"`

	Tier               Tier   `json:"tier"`
	LastBonusPaidOn    string `json:"lastBonusPaidOn"`
	DaysSinceLastBonus *int   `json:"daysSinceLastBonus"`

	CanAddBooking bool `json:"canAddBooking"`
}

// deriveAccount applies the per-account rules. bookings must already be
// sorted most recent first.
func deriveAccount(acc core.Account, bookings []core.Booking, sales []core.Sale, s core.Settings, today time.Time) Account {
	a := Account{
		Account:       acc,
		EmailKey:      acc.Key(),
		TotalBookings: len(bookings),
		TotalBonuses:  decimal.Zero,
		TotalSales:    decimal.Zero,
		Tier:          TierStandard,
	}

	var bonusEvents []core.Booking
	for _, b := range bookings {
		switch b.Status {
		case core.StatusConfirmed:
			a.ConfirmedBookings++
		case core.StatusCancelled:
			a.CancelledBookings++
		}
		if b.Status != core.StatusCancelled {
			a.PositiveBookings++
		}
		if b.Status.IsActive() {
			a.ActiveBookingsCount++
		}
		if b.IsBonusEvent() {
			bonusEvents = append(bonusEvents, b)
			a.TotalBonuses = a.TotalBonuses.Add(b.RewardAmount)
		}
	}
	for _, sale := range sales {
		a.TotalSales = a.TotalSales.Add(sale.Amount)
	}
	a.NetBalance = a.TotalBonuses.Sub(a.TotalSales)
	a.ProgressToGold = progress(a.NetBalance, s.GoldThreshold)

	a.CooldownOK = true
	if len(bookings) > 0 {
		a.LastBookingAt = bookings[0].CreatedAt
	}
	if a.LastBookingAt != "" {
		days, ok := core.DaysSince(a.LastBookingAt, today)
		if ok {
			a.DaysSinceLastBooking = intPtr(days)
		}
		a.CooldownOK = ok && days >= s.CooldownDays
	}

	a.TotalCancelled = a.CancelledBookings
	for _, b := range bookings {
		if b.Status != core.StatusCancelled {
			break
		}
		a.ConsecutiveCancelled++
	}

	a.TechBlocked = a.TotalCancelled >= s.TechBlockTotal || a.ConsecutiveCancelled >= s.TechBlockConsecutive
	a.ManualBlocked = acc.IsBlocked()
	a.IsBlocked = a.ManualBlocked || a.TechBlocked
	switch {
	case a.ManualBlocked:
		a.BlockReason = BlockReasonManual
	case a.TechBlocked:
		a.BlockReason = fmt.Sprintf("TECH: cancelled (total=%d, streak=%d)", a.TotalCancelled, a.ConsecutiveCancelled)
	}

	a.LastBonusPaidOn = lastBonusDate(bonusEvents)
	if a.LastBonusPaidOn != "" {
		if days, ok := core.DaysSince(a.LastBonusPaidOn, today); ok {
			a.DaysSinceLastBonus = intPtr(days)
		}
	}

	// Platinum only refines Gold: both require the threshold and no block.
	if a.NetBalance.GreaterThanOrEqual(s.GoldThreshold) && !a.IsBlocked {
		a.Tier = TierGold
		if a.DaysSinceLastBonus != nil && *a.DaysSinceLastBonus > s.PlatinumAfterDays {
			a.Tier = TierPlatinum
		}
	}

	a.CanAddBooking = !a.IsBlocked && a.ActiveBookingsCount < s.MaxActiveBookings && a.CooldownOK
	return a
}

// lastBonusDate is the most recent payout date (or createdAt when the
// reward has no payout date) among the bonus events.
func lastBonusDate(events []core.Booking) string {
	var dates []string
	for _, b := range events {
		d := b.RewardPaidOn
		if d == "" {
			d = b.CreatedAt
		}
		if d != "" {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return ""
	}
	sort.SliceStable(dates, func(i, j int) bool { return sortTime(dates[i]) > sortTime(dates[j]) })
	return dates[0]
}

// progress is net/threshold clamped to [0, 1].
func progress(net, threshold decimal.Decimal) float64 {
	if !threshold.IsPositive() {
		if net.IsNegative() {
			return 0
		}
		return 1
	}
	f, _ := net.Div(threshold).Float64()
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
