package derive

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/rewards"
)

// Medal labels of the reward pipeline. They are a payout view and are
// independent of the Gold/Platinum tiers.
const (
	MedalPlatinum     = "Platinum"
	MedalGold         = "Gold"
	MedalSilver       = "Silver"
	MedalBronzeSilver = "Bronze/Silver"
	MedalBronze       = "Bronze"
	MedalNone         = "—"
)

var (
	medalTop    = decimal.NewFromInt(300)
	medalMiddle = decimal.NewFromInt(200)
	medalLow    = decimal.NewFromInt(50)
)

// RewardRow is a bonus-bearing booking with its payout estimate.
type RewardRow struct {
	core.Booking
	ETA     string `json:"eta"`
	Overdue bool   `json:"overdue"`
}

// AccountRewards summarizes one account's payouts.
type AccountRewards struct {
	Email          string          `json:"email"`
	PaidTotal      decimal.Decimal `json:"paidTotal"`
	PendingTotal   decimal.Decimal `json:"pendingTotal"`
	PromoTotal     decimal.Decimal `json:"promoTotal"`
	SpentTotal     decimal.Decimal `json:"spentTotal"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	LastPaidOn     string          `json:"lastPaidOn"`
	DaysSinceLast  *int            `json:"daysSinceLast"`
	Medal          string          `json:"medal"`
}

// RewardPipeline splits rewards into paid and pending.
type RewardPipeline struct {
	Paid         []RewardRow      `json:"paid"`
	Pending      []RewardRow      `json:"pending"`
	TotalRewards decimal.Decimal  `json:"totalRewards"`
	PaidTotal    decimal.Decimal  `json:"paidTotal"`
	PendingTotal decimal.Decimal  `json:"pendingTotal"`
	PromoTotal   decimal.Decimal  `json:"promoTotal"`
	SpentTotal   decimal.Decimal  `json:"spentTotal"`
	Accounts     []AccountRewards `json:"accounts"`
}

// Rewards builds the payout pipeline from bookings carrying a positive
// reward or a payout date. Paid rows are ordered by payout date (latest
// first), pending rows by ETA (soonest first, unknown last). m supplies
// the balances of the per-account summary; nil derives it from in.
func Rewards(in Input, m *Model) RewardPipeline {
	if m == nil {
		m = Derive(in)
	}
	today := in.today()
	todayISO := today.Format(core.ISODate)

	p := RewardPipeline{
		TotalRewards: decimal.Zero,
		PaidTotal:    decimal.Zero,
		PromoTotal:   decimal.Zero,
		SpentTotal:   decimal.Zero,
	}
	for _, b := range in.Bookings {
		if !b.RewardAmount.IsPositive() && !b.IsPaid() {
			continue
		}
		p.TotalRewards = p.TotalRewards.Add(b.RewardAmount)
		row := RewardRow{Booking: b}
		if b.IsPaid() {
			p.Paid = append(p.Paid, row)
			p.PaidTotal = p.PaidTotal.Add(b.RewardAmount)
			continue
		}
		row.ETA = rewards.BookingETA(b, in.Settings)
		row.Overdue = row.ETA != "" && row.ETA < todayISO
		p.Pending = append(p.Pending, row)
	}
	p.PendingTotal = p.TotalRewards.Sub(p.PaidTotal)

	promoByEmail := make(map[string]decimal.Decimal)
	for _, r := range in.SpecialRewards {
		k := core.NormalizeKey(r.Email)
		promoByEmail[k] = promoByEmail[k].Add(r.Amount)
		p.PromoTotal = p.PromoTotal.Add(r.Amount)
	}
	spentByEmail := make(map[string]decimal.Decimal)
	for _, sale := range in.Sales {
		k := core.NormalizeKey(sale.Email)
		spentByEmail[k] = spentByEmail[k].Add(sale.Amount)
		p.SpentTotal = p.SpentTotal.Add(sale.Amount)
	}

	sort.SliceStable(p.Paid, func(i, j int) bool {
		return sortTime(p.Paid[i].RewardPaidOn) > sortTime(p.Paid[j].RewardPaidOn)
	})
	sort.SliceStable(p.Pending, func(i, j int) bool {
		a, b := p.Pending[i].ETA, p.Pending[j].ETA
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})

	for _, acc := range m.Accounts {
		sum := AccountRewards{
			Email:          acc.Email,
			PaidTotal:      decimal.Zero,
			PendingTotal:   decimal.Zero,
			PromoTotal:     promoByEmail[acc.EmailKey],
			SpentTotal:     spentByEmail[acc.EmailKey],
			CurrentBalance: acc.NetBalance,
		}
		for _, r := range p.Paid {
			if core.NormalizeKey(r.Email) != acc.EmailKey {
				continue
			}
			sum.PaidTotal = sum.PaidTotal.Add(r.RewardAmount)
			if sum.LastPaidOn == "" {
				sum.LastPaidOn = r.RewardPaidOn
			}
		}
		for _, r := range p.Pending {
			if core.NormalizeKey(r.Email) == acc.EmailKey {
				sum.PendingTotal = sum.PendingTotal.Add(r.RewardAmount)
			}
		}
		if !sum.PaidTotal.IsPositive() && !sum.PendingTotal.IsPositive() &&
			!sum.SpentTotal.IsPositive() && !sum.PromoTotal.IsPositive() {
			continue
		}
		if sum.LastPaidOn != "" {
			if days, ok := core.DaysSince(sum.LastPaidOn, today); ok {
				sum.DaysSinceLast = intPtr(days)
			}
		}
		sum.Medal = Medal(sum.PaidTotal, sum.PendingTotal, sum.DaysSinceLast)
		p.Accounts = append(p.Accounts, sum)
	}
	return p
}

// Medal classifies an account by paid and pending totals and the days
// since its last payout.
func Medal(paid, pending decimal.Decimal, daysSinceLast *int) string {
	switch {
	case paid.GreaterThan(medalTop) && pending.IsZero() && daysSinceLast != nil:
		switch d := *daysSinceLast; {
		case d >= 40:
			return MedalPlatinum
		case d >= 20:
			return MedalGold
		}
		return MedalNone
	case paid.GreaterThanOrEqual(medalMiddle) && paid.LessThanOrEqual(medalTop) && daysSinceLast != nil:
		if *daysSinceLast <= 20 {
			return MedalBronzeSilver
		}
		return MedalSilver
	case paid.GreaterThanOrEqual(medalLow) && paid.LessThan(medalMiddle):
		return MedalBronze
	}
	return MedalNone
}
