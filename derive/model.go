/*
Package derive computes the read-only views of the dashboard.

PURPOSE:
  Derive joins accounts, hotels, bookings and sales by email and hotel
  key and produces enriched, ranked and classified projections: tiers,
  block reasons, reliability scores, and the ready/eligible lists that
  drive the next booking assignment.

PURITY:
  Derive is a pure function of its Input. It never mutates its
  arguments and keeps no state, so it is recomputed wholesale after
  every change and is safe to call concurrently. "Today" is part of the
  input so day arithmetic is reproducible.

KEY OUTPUTS:
  AccountsReady:  canAddBooking accounts, richest first
  HotelsEligible: unblocked hotels with <= 2 cancellations and at least
                  one confirmed booking, most confirmed first
  Premium:        Gold and Platinum accounts

SEE ALSO:
  - accounts.go, hotels.go: per-entity rules
  - rewards.go: reward pipeline (paid vs pending)
  - trend.go: daily earned/spent buckets
*/
package derive

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
)

const (
	topN                     = 10
	eligibleMaxCancellations = 2
)

// Input is everything derivation depends on.
type Input struct {
	Accounts       []core.Account
	Hotels         []core.Hotel
	Bookings       []core.Booking
	Sales          []core.Sale
	SpecialRewards []core.SpecialReward
	Settings       core.Settings

	// Today anchors cooldown and tier arithmetic. Zero means core.Today().
	Today time.Time
}

func (in Input) today() time.Time {
	if in.Today.IsZero() {
		return core.Today()
	}
	return core.StartOfDay(in.Today)
}

// Totals are the headline figures of the overview.
type Totals struct {
	TotalNet         decimal.Decimal `json:"totalNet"`
	TotalBookings    int             `json:"totalBookings"`
	Blocked          int             `json:"blocked"`
	MissingPasswords int             `json:"missingPasswords"`
}

// Model is the complete derived view.
type Model struct {
	Accounts       []Account           `json:"derivedAccounts"`
	Hotels         []Hotel             `json:"derivedHotels"`
	AccountsReady  []Account           `json:"accountsReady"`
	HotelsEligible []Hotel             `json:"hotelsEligible"`
	Premium        []Account           `json:"premium"`
	TopHotels      []Hotel             `json:"topHotels"`
	TopAccounts    []Account           `json:"topAccounts"`
	StatusCounts   map[core.Status]int `json:"statusCounts"`
	TotalSpent     decimal.Decimal     `json:"totalSpent"`
	TotalEarned    decimal.Decimal     `json:"totalEarned"`
	TotalLeft      decimal.Decimal     `json:"totalLeft"`
	Totals         Totals              `json:"totals"`
}

// Derive recomputes the full model from scratch.
func Derive(in Input) *Model {
	today := in.today()
	s := in.Settings

	bookingsByEmail := groupBookings(in.Bookings)
	salesByEmail := make(map[string][]core.Sale)
	for _, sale := range in.Sales {
		k := core.NormalizeKey(sale.Email)
		salesByEmail[k] = append(salesByEmail[k], sale)
	}

	m := &Model{
		Accounts:     make([]Account, 0, len(in.Accounts)),
		Hotels:       deriveHotels(in.Hotels, in.Bookings, s),
		StatusCounts: make(map[core.Status]int, len(core.Statuses)),
		TotalSpent:   decimal.Zero,
		TotalEarned:  decimal.Zero,
	}

	for _, acc := range in.Accounts {
		key := acc.Key()
		m.Accounts = append(m.Accounts, deriveAccount(acc, bookingsByEmail[key], salesByEmail[key], s, today))
	}

	for _, a := range m.Accounts {
		if a.CanAddBooking {
			m.AccountsReady = append(m.AccountsReady, a)
		}
		if a.Tier == TierGold || a.Tier == TierPlatinum {
			m.Premium = append(m.Premium, a)
		}
		m.TotalEarned = m.TotalEarned.Add(a.TotalBonuses)
	}
	sort.SliceStable(m.AccountsReady, func(i, j int) bool {
		return m.AccountsReady[i].NetBalance.GreaterThan(m.AccountsReady[j].NetBalance)
	})

	for _, h := range m.Hotels {
		if !h.IsBlocked && h.Cancelled <= eligibleMaxCancellations && h.Confirmed > 0 {
			m.HotelsEligible = append(m.HotelsEligible, h)
		}
	}
	sort.SliceStable(m.HotelsEligible, func(i, j int) bool {
		return m.HotelsEligible[i].Confirmed > m.HotelsEligible[j].Confirmed
	})

	m.TopHotels = append([]Hotel(nil), m.Hotels...)
	sort.SliceStable(m.TopHotels, func(i, j int) bool {
		return m.TopHotels[i].TotalBookings > m.TopHotels[j].TotalBookings
	})
	m.TopHotels = truncate(m.TopHotels, topN)

	m.TopAccounts = append([]Account(nil), m.Accounts...)
	sort.SliceStable(m.TopAccounts, func(i, j int) bool {
		return m.TopAccounts[i].TotalBookings > m.TopAccounts[j].TotalBookings
	})
	m.TopAccounts = truncate(m.TopAccounts, topN)

	for _, st := range core.Statuses {
		m.StatusCounts[st] = 0
	}
	for _, b := range in.Bookings {
		m.StatusCounts[b.Status]++
	}

	for _, sale := range in.Sales {
		m.TotalSpent = m.TotalSpent.Add(sale.Amount)
	}
	m.TotalLeft = m.TotalEarned.Sub(m.TotalSpent)

	m.Totals = Totals{TotalNet: decimal.Zero, TotalBookings: len(in.Bookings)}
	for _, a := range m.Accounts {
		m.Totals.TotalNet = m.Totals.TotalNet.Add(a.NetBalance)
		if a.IsBlocked {
			m.Totals.Blocked++
		}
		if strings.TrimSpace(a.Password) == "" {
			m.Totals.MissingPasswords++
		}
	}
	return m
}

// Account returns the derived account for an email, if present.
func (m *Model) Account(email string) (Account, bool) {
	key := core.NormalizeKey(email)
	for _, a := range m.Accounts {
		if a.EmailKey == key {
			return a, true
		}
	}
	return Account{}, false
}

// Hotel returns the derived hotel for an ID, if present.
func (m *Model) Hotel(hotelID string) (Hotel, bool) {
	for _, h := range m.Hotels {
		if h.HotelID == hotelID {
			return h, true
		}
	}
	return Hotel{}, false
}

// groupBookings buckets bookings by lowercased email, most recent
// createdAt first. Ties keep insertion order.
func groupBookings(bookings []core.Booking) map[string][]core.Booking {
	out := make(map[string][]core.Booking)
	for _, b := range bookings {
		k := core.NormalizeKey(b.Email)
		out[k] = append(out[k], b)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool {
			return sortTime(list[i].CreatedAt) > sortTime(list[j].CreatedAt)
		})
	}
	return out
}

// sortTime orders unparseable dates as the epoch.
func sortTime(s string) int64 {
	t, ok := core.ParseDate(s)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func intPtr(v int) *int { return &v }
