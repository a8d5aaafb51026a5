package derive

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
)

// Hotel is a hotel enriched with booking statistics.
type Hotel struct {
	core.Hotel

	TotalBookings int             `json:"totalBookings"`
	Confirmed     int             `json:"confirmed"`
	Completed     int             `json:"completed"`
	Cancelled     int             `json:"cancelled"`
	Spent         decimal.Decimal `json:"spent"`
	LastBookingAt string          `json:"lastBookingAt"`

	// Reliability is the non-cancelled share in percent (100 when unused).
	Reliability float64 `json:"reliability"`
	// RankScore weighs reliability over volume 2:1. Display ranking only.
	RankScore float64 `json:"rankScore"`

	TechBlocked   bool   `json:"techBlocked"`
	ManualBlocked bool   `json:"manualBlocked"`
	IsBlocked     bool   `json:"isBlocked"`
	BlockReason   string `json:"blockReason"`
}

type hotelStats struct {
	total, confirmed, cancelled, completed int
	spent                                  decimal.Decimal
	lastBookingAt                          string
}

// deriveHotels returns hotels ranked by RankScore, highest first.
func deriveHotels(hotels []core.Hotel, bookings []core.Booking, s core.Settings) []Hotel {
	stats := make(map[string]*hotelStats)
	for _, b := range bookings {
		if b.HotelID == "" {
			continue
		}
		st, ok := stats[b.HotelID]
		if !ok {
			st = &hotelStats{spent: decimal.Zero}
			stats[b.HotelID] = st
		}
		st.total++
		switch b.Status {
		case core.StatusConfirmed:
			st.confirmed++
		case core.StatusCancelled:
			st.cancelled++
		case core.StatusCompleted:
			st.completed++
		}
		st.spent = st.spent.Add(b.Cost)
		if st.lastBookingAt == "" || sortTime(b.CreatedAt) > sortTime(st.lastBookingAt) {
			st.lastBookingAt = b.CreatedAt
		}
	}

	out := make([]Hotel, 0, len(hotels))
	for _, h := range hotels {
		st := stats[h.HotelID]
		if st == nil {
			st = &hotelStats{spent: decimal.Zero}
		}
		out = append(out, deriveHotel(h, st, s))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RankScore > out[j].RankScore })
	return out
}

func deriveHotel(h core.Hotel, st *hotelStats, s core.Settings) Hotel {
	dh := Hotel{
		Hotel:         h,
		TotalBookings: st.total,
		Confirmed:     st.confirmed,
		Completed:     st.completed,
		Cancelled:     st.cancelled,
		Spent:         st.spent,
		LastBookingAt: st.lastBookingAt,
		Reliability:   100,
	}
	if st.total > 0 {
		dh.Reliability = (1 - float64(st.cancelled)/float64(st.total)) * 100
	}
	dh.RankScore = dh.Reliability*2 + float64(st.total)*0.5

	dh.TechBlocked = st.cancelled >= s.HotelTechBlockTotal
	dh.ManualBlocked = h.IsBlocked()
	dh.IsBlocked = dh.ManualBlocked || dh.TechBlocked
	switch {
	case dh.ManualBlocked:
		dh.BlockReason = BlockReasonManual
	case dh.TechBlocked:
		dh.BlockReason = fmt.Sprintf("TECH: hotel cancelled>=%d", s.HotelTechBlockTotal)
	}
	return dh
}
