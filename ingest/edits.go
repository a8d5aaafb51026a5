package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/parse"
	"github.com/warp/booking-ops/rewards"
)

// Patches use pointer fields: nil leaves the field unchanged.

type AccountPatch struct {
	Password     *string             `json:"password,omitempty"`
	ManualStatus *core.AccountStatus `json:"manualStatus,omitempty"`
	Notes        *string             `json:"notes,omitempty"`
}

type BookingPatch struct {
	Status       *string          `json:"status,omitempty"`
	RewardType   *string          `json:"rewardType,omitempty"`
	RewardAmount *decimal.Decimal `json:"rewardAmount,omitempty"`
	RewardPaidOn *string          `json:"rewardPaidOn,omitempty"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	CheckIn      *string          `json:"checkIn,omitempty"`
	CheckOut     *string          `json:"checkOut,omitempty"`
	PromoCode    *string          `json:"promoCode,omitempty"`
	HotelID      *string          `json:"hotelId,omitempty"`
	Airline      *string          `json:"airline,omitempty"`
	Level        *string          `json:"level,omitempty"`
	Note         *string          `json:"note,omitempty"`
}

type HotelPatch struct {
	Name         *string           `json:"name,omitempty"`
	ManualStatus *core.HotelStatus `json:"manualStatus,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
}

type SalePatch struct {
	Date   *string          `json:"date,omitempty"`
	Email  *string          `json:"email,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Note   *string          `json:"note,omitempty"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func UpdateAccount(s *State, email string, p AccountPatch, now time.Time) (core.Account, error) {
	i := s.accountIndex(email)
	if i < 0 {
		return core.Account{}, fmt.Errorf("update %q: %w", email, core.ErrAccountNotFound)
	}
	a := &s.Accounts[i]
	setString(&a.Password, p.Password)
	setString(&a.Notes, p.Notes)
	if p.ManualStatus != nil {
		a.ManualStatus = *p.ManualStatus
	}
	s.audit(now, core.AuditManualEdit, "account "+a.Email)
	return *a, nil
}

// DeleteAccount removes an account together with its bookings and sales.
func DeleteAccount(s *State, email string, now time.Time) error {
	i := s.accountIndex(email)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", email, core.ErrAccountNotFound)
	}
	key := s.Accounts[i].Key()
	s.Accounts = append(s.Accounts[:i], s.Accounts[i+1:]...)

	bookings := s.Bookings[:0]
	for _, b := range s.Bookings {
		if core.NormalizeKey(b.Email) != key {
			bookings = append(bookings, b)
		}
	}
	s.Bookings = bookings

	sales := s.Sales[:0]
	for _, sale := range s.Sales {
		if core.NormalizeKey(sale.Email) != key {
			sales = append(sales, sale)
		}
	}
	s.Sales = sales

	s.audit(now, core.AuditAccountDelete, "deleted account "+key)
	return nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

// UpdateBooking applies a manual edit. Status and reward type go through
// the same normalization as pasted values.
func UpdateBooking(s *State, bookingID string, p BookingPatch, now time.Time) (core.Booking, error) {
	i := s.bookingIndex(bookingID)
	if i < 0 {
		return core.Booking{}, fmt.Errorf("update booking %q: %w", bookingID, core.ErrBookingNotFound)
	}
	b := &s.Bookings[i]
	if p.Status != nil {
		b.Status = parse.NormalizeStatus(*p.Status)
	}
	if p.RewardType != nil {
		b.RewardType = rewards.FromSettings(s.Settings).Normalize(*p.RewardType)
	}
	if p.RewardAmount != nil {
		b.RewardAmount = *p.RewardAmount
	}
	if p.Cost != nil {
		b.Cost = *p.Cost
	}
	setString(&b.RewardPaidOn, p.RewardPaidOn)
	setString(&b.CheckIn, p.CheckIn)
	setString(&b.CheckOut, p.CheckOut)
	setString(&b.PromoCode, p.PromoCode)
	setString(&b.HotelID, p.HotelID)
	setString(&b.Airline, p.Airline)
	setString(&b.Level, p.Level)
	setString(&b.Note, p.Note)
	s.audit(now, core.AuditManualEdit, fmt.Sprintf("booking %s %s", b.Email, b.BookingNo))
	return *b, nil
}

// =============================================================================
// HOTELS
// =============================================================================

// AddHotel registers a hotel. An empty ID is synthesized from the name.
func AddHotel(s *State, h core.Hotel, now time.Time) (core.Hotel, error) {
	h.HotelID = strings.TrimSpace(h.HotelID)
	h.Name = strings.TrimSpace(h.Name)
	if h.HotelID == "" && h.Name == "" {
		return core.Hotel{}, core.ErrInvalidHotel
	}
	if h.HotelID == "" {
		h.HotelID = core.StableHotelID(h.Name)
	}
	if h.Name == "" {
		h.Name = h.HotelID
	}
	if h.ManualStatus == "" {
		h.ManualStatus = core.HotelOK
	}
	if s.hotelIndex(h.HotelID) >= 0 {
		return core.Hotel{}, fmt.Errorf("add hotel %q: %w", h.HotelID, core.ErrDuplicateHotel)
	}
	s.Hotels = append(s.Hotels, h)
	s.audit(now, core.AuditHotelCreate, fmt.Sprintf("hotel %s (%s)", h.HotelID, h.Name))
	return h, nil
}

func UpdateHotel(s *State, hotelID string, p HotelPatch, now time.Time) (core.Hotel, error) {
	i := s.hotelIndex(hotelID)
	if i < 0 {
		return core.Hotel{}, fmt.Errorf("update hotel %q: %w", hotelID, core.ErrHotelNotFound)
	}
	h := &s.Hotels[i]
	setString(&h.Name, p.Name)
	setString(&h.Notes, p.Notes)
	if p.ManualStatus != nil {
		h.ManualStatus = *p.ManualStatus
	}
	s.audit(now, core.AuditManualEdit, "hotel "+h.HotelID)
	return *h, nil
}

// =============================================================================
// SALES
// =============================================================================

// AddSale records spend entered by hand. A blank date means today.
func AddSale(s *State, sale core.Sale, now time.Time) (core.Sale, error) {
	sale.Email = core.NormalizeKey(sale.Email)
	if !validEmail(sale.Email) {
		return core.Sale{}, fmt.Errorf("sale for %q: %w", sale.Email, core.ErrInvalidEmail)
	}
	if !sale.Amount.IsPositive() {
		return core.Sale{}, fmt.Errorf("sale of %s: %w", sale.Amount, core.ErrInvalidAmount)
	}
	if strings.TrimSpace(sale.Date) == "" {
		sale.Date = todayISO(now)
	}
	sale.ID = core.NewID()
	s.Sales = append(s.Sales, sale)
	s.audit(now, core.AuditSaleAdd, fmt.Sprintf("%s %s %s", sale.Date, sale.Email, core.FormatMoney(sale.Amount)))
	return sale, nil
}

func UpdateSale(s *State, id string, p SalePatch, now time.Time) (core.Sale, error) {
	i := s.saleIndex(id)
	if i < 0 {
		return core.Sale{}, fmt.Errorf("update sale %q: %w", id, core.ErrSaleNotFound)
	}
	sale := s.Sales[i]
	setString(&sale.Date, p.Date)
	setString(&sale.Note, p.Note)
	if p.Email != nil {
		sale.Email = core.NormalizeKey(*p.Email)
		if !validEmail(sale.Email) {
			return core.Sale{}, fmt.Errorf("sale %q: %w", id, core.ErrInvalidEmail)
		}
	}
	if p.Amount != nil {
		if !p.Amount.IsPositive() {
			return core.Sale{}, fmt.Errorf("sale %q: %w", id, core.ErrInvalidAmount)
		}
		sale.Amount = *p.Amount
	}
	s.Sales[i] = sale
	s.audit(now, core.AuditManualEdit, "sale "+id)
	return sale, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// UpdateSettings replaces the settings wholesale. Lenient decoding of
// partial input happens in the factory package.
func UpdateSettings(s *State, settings core.Settings, now time.Time) {
	s.Settings = settings.Clone()
	s.audit(now, core.AuditSettingsUpdate, "settings updated")
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
