/*
Package ingest owns the mutable side of the dashboard.

PURPOSE:
  State is the single versioned aggregate (settings, accounts, hotels,
  bookings, sales, promo rewards, audit). Every command in this package
  takes a *State it may mutate in place; the Controller hands commands
  a clone and swaps it in only after the command and persistence both
  succeed. Readers never observe a half-applied batch.

KEY CONCEPTS:
  - Dedup key: (lowercased email, bookingNo). Enforced against the
    running set, so duplicates inside one paste are caught too.
  - Auto-create: unknown accounts and hotels referenced by a paste are
    created when Settings.AutoCreateFromImport is on.
  - TECH-block sweep: writes derived TECH blocks back as manual blocks.
    Idempotent; guarded by the manual status.
  - Audit: advisory, capped at the last MaxAudit entries.

SEE ALSO:
  - bookings.go: booking paste orchestration
  - controller.go: single-writer wrapper and persistence
  - snapshot.go: JSON export/import
*/
package ingest

import (
	"strings"
	"time"

	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/derive"
)

// MaxAudit is the number of audit entries retained after each batch.
const MaxAudit = 400

// LastImport summarizes the most recent booking paste.
type LastImport struct {
	At           string `json:"at"`
	Added        int    `json:"added"`
	DupSkipped   int    `json:"dupSkipped"`
	AccCreated   int    `json:"accCreated"`
	HotelCreated int    `json:"hotelCreated"`
	Errors       int    `json:"errors"`
}

// State is the complete persisted aggregate.
type State struct {
	Version        int64                `json:"version"`
	Settings       core.Settings        `json:"settings"`
	Accounts       []core.Account       `json:"accounts"`
	Hotels         []core.Hotel         `json:"hotels"`
	Bookings       []core.Booking       `json:"bookings"`
	Sales          []core.Sale          `json:"sales"`
	SpecialRewards []core.SpecialReward `json:"specialRewards"`
	Audit          []core.AuditEntry    `json:"audit"`
	LastImport     *LastImport          `json:"lastImport,omitempty"`
}

// NewState returns an empty aggregate with the given settings.
func NewState(settings core.Settings) *State {
	return &State{
		Settings:       settings.Clone(),
		Accounts:       []core.Account{},
		Hotels:         []core.Hotel{},
		Bookings:       []core.Booking{},
		Sales:          []core.Sale{},
		SpecialRewards: []core.SpecialReward{},
		Audit:          []core.AuditEntry{},
	}
}

// Clone returns a deep copy. Entities are plain values, so copying the
// slices is enough.
func (s *State) Clone() *State {
	out := &State{
		Version:        s.Version,
		Settings:       s.Settings.Clone(),
		Accounts:       append([]core.Account{}, s.Accounts...),
		Hotels:         append([]core.Hotel{}, s.Hotels...),
		Bookings:       append([]core.Booking{}, s.Bookings...),
		Sales:          append([]core.Sale{}, s.Sales...),
		SpecialRewards: append([]core.SpecialReward{}, s.SpecialRewards...),
		Audit:          append([]core.AuditEntry{}, s.Audit...),
	}
	if s.LastImport != nil {
		li := *s.LastImport
		out.LastImport = &li
	}
	return out
}

// Input adapts the state for derivation.
func (s *State) Input(today time.Time) derive.Input {
	return derive.Input{
		Accounts:       s.Accounts,
		Hotels:         s.Hotels,
		Bookings:       s.Bookings,
		Sales:          s.Sales,
		SpecialRewards: s.SpecialRewards,
		Settings:       s.Settings,
		Today:          today,
	}
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *State) accountIndex(email string) int {
	key := core.NormalizeKey(email)
	for i, a := range s.Accounts {
		if a.Key() == key {
			return i
		}
	}
	return -1
}

func (s *State) hotelIndex(hotelID string) int {
	for i, h := range s.Hotels {
		if h.HotelID == hotelID {
			return i
		}
	}
	return -1
}

func (s *State) bookingIndex(bookingID string) int {
	for i, b := range s.Bookings {
		if b.BookingID == bookingID {
			return i
		}
	}
	return -1
}

func (s *State) saleIndex(id string) int {
	for i, sale := range s.Sales {
		if sale.ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *State) audit(now time.Time, typ core.AuditType, msg string) {
	s.Audit = append(s.Audit, core.AuditEntry{
		ID:   core.NewID(),
		At:   now.UTC().Format(time.RFC3339),
		Type: typ,
		Msg:  msg,
	})
}

func (s *State) trimAudit() {
	if n := len(s.Audit); n > MaxAudit {
		s.Audit = append([]core.AuditEntry{}, s.Audit[n-MaxAudit:]...)
	}
}

func todayISO(now time.Time) string {
	return now.UTC().Format(core.ISODate)
}

func validEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}
