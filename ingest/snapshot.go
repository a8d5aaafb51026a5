package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/factory"
)

// SnapshotAccount is an account with its bookings and sales embedded.
type SnapshotAccount struct {
	core.Account
	Bookings []core.Booking `json:"bookings"`
	Sales    []core.Sale    `json:"sales"`
}

// Snapshot is the export/import document. Bookings and sales whose email
// matches no account are carried in the top-level Orphan* lists so a
// round-trip loses nothing.
type Snapshot struct {
	ExportedAt     string               `json:"exportedAt"`
	Settings       core.Settings        `json:"settings"`
	Hotels         []core.Hotel         `json:"hotels"`
	SpecialRewards []core.SpecialReward `json:"specialRewards"`
	Accounts       []SnapshotAccount    `json:"accounts"`
	OrphanBookings []core.Booking       `json:"orphanBookings,omitempty"`
	OrphanSales    []core.Sale          `json:"orphanSales,omitempty"`
}

// Export builds the snapshot document, joining bookings and sales to
// accounts by lowercased email.
func Export(s *State, now time.Time) Snapshot {
	snap := Snapshot{
		ExportedAt:     now.UTC().Format(time.RFC3339),
		Settings:       s.Settings.Clone(),
		Hotels:         append([]core.Hotel{}, s.Hotels...),
		SpecialRewards: append([]core.SpecialReward{}, s.SpecialRewards...),
		Accounts:       make([]SnapshotAccount, 0, len(s.Accounts)),
	}

	idx := make(map[string]int, len(s.Accounts))
	for _, a := range s.Accounts {
		if _, dup := idx[a.Key()]; !dup {
			idx[a.Key()] = len(snap.Accounts)
		}
		snap.Accounts = append(snap.Accounts, SnapshotAccount{
			Account:  a,
			Bookings: []core.Booking{},
			Sales:    []core.Sale{},
		})
	}
	for _, b := range s.Bookings {
		if i, ok := idx[core.NormalizeKey(b.Email)]; ok {
			snap.Accounts[i].Bookings = append(snap.Accounts[i].Bookings, b)
			continue
		}
		snap.OrphanBookings = append(snap.OrphanBookings, b)
	}
	for _, sale := range s.Sales {
		if i, ok := idx[core.NormalizeKey(sale.Email)]; ok {
			snap.Accounts[i].Sales = append(snap.Accounts[i].Sales, sale)
			continue
		}
		snap.OrphanSales = append(snap.OrphanSales, sale)
	}
	return snap
}

// Import replaces the entity collections of s with a snapshot document.
// The payload must carry an "accounts" array; anything else fails with
// core.ErrInvalidSnapshot and leaves s untouched. Settings, hotels and
// promo rewards are adopted only when present. Audit is kept.
func Import(s *State, data []byte, now time.Time) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidSnapshot, err)
	}
	if !isArray(doc["accounts"]) {
		return core.ErrInvalidSnapshot
	}

	var accounts []SnapshotAccount
	if err := json.Unmarshal(doc["accounts"], &accounts); err != nil {
		return fmt.Errorf("%w: accounts: %v", core.ErrInvalidSnapshot, err)
	}

	settings := s.Settings
	if raw, ok := doc["settings"]; ok && !isNull(raw) {
		decoded, err := factory.DecodeSettings(raw)
		if err != nil {
			return fmt.Errorf("%w: settings: %v", core.ErrInvalidSnapshot, err)
		}
		settings = decoded
	}
	hotels := s.Hotels
	if isArray(doc["hotels"]) {
		hotels = nil
		if err := json.Unmarshal(doc["hotels"], &hotels); err != nil {
			return fmt.Errorf("%w: hotels: %v", core.ErrInvalidSnapshot, err)
		}
	}
	promos := s.SpecialRewards
	if isArray(doc["specialRewards"]) {
		promos = nil
		if err := json.Unmarshal(doc["specialRewards"], &promos); err != nil {
			return fmt.Errorf("%w: specialRewards: %v", core.ErrInvalidSnapshot, err)
		}
	}
	var orphanBookings []core.Booking
	if isArray(doc["orphanBookings"]) {
		if err := json.Unmarshal(doc["orphanBookings"], &orphanBookings); err != nil {
			return fmt.Errorf("%w: orphanBookings: %v", core.ErrInvalidSnapshot, err)
		}
	}
	var orphanSales []core.Sale
	if isArray(doc["orphanSales"]) {
		if err := json.Unmarshal(doc["orphanSales"], &orphanSales); err != nil {
			return fmt.Errorf("%w: orphanSales: %v", core.ErrInvalidSnapshot, err)
		}
	}

	next := NewState(settings)
	next.Hotels = append(next.Hotels, hotels...)
	next.SpecialRewards = append(next.SpecialRewards, promos...)
	for _, a := range accounts {
		next.Accounts = append(next.Accounts, a.Account)
		next.Bookings = append(next.Bookings, a.Bookings...)
		next.Sales = append(next.Sales, a.Sales...)
	}
	next.Bookings = append(next.Bookings, orphanBookings...)
	next.Sales = append(next.Sales, orphanSales...)

	s.Settings = next.Settings
	s.Accounts = next.Accounts
	s.Hotels = next.Hotels
	s.Bookings = next.Bookings
	s.Sales = next.Sales
	s.SpecialRewards = next.SpecialRewards
	s.audit(now, core.AuditSnapshotImport, fmt.Sprintf("imported %d accounts, %d bookings, %d sales",
		len(s.Accounts), len(s.Bookings), len(s.Sales)))
	return nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
