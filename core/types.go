/*
Package core holds the entities and primitives of the booking rewards workflow.

PURPOSE:
  Accounts (email/password identities), hotels, bookings, cash spend and
  promo rewards are the raw collections an operator pastes in from
  spreadsheets. Everything else in the module (parsers, derivation,
  ingestion) is built on the types and helpers in this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account:  reward-program identity, keyed by lowercased email
  - Hotel:    booking destination, keyed by hotelId
  - Booking:  one reservation; (email, bookingNo) is its dedup key
  - Sale:     cash spend attributed to an account
  - AuditEntry: append-only operator log record

DESIGN PRINCIPLES:
  1. Precision: money is decimal.Decimal, never float64
  2. Wire compatibility: JSON field names match the dashboard export format
  3. Dates stay ISO strings (YYYY-MM-DD); see time.go for arithmetic

SEE ALSO:
  - settings.go: process-wide thresholds and reward types
  - money.go, time.go, hotelid.go: parsing primitives
*/
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The dashboard export carries money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// NormalizeKey trims and lowercases s. Used for email and hotel-name lookups.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// =============================================================================
// STATUSES
// =============================================================================

// Status is the closed booking status vocabulary.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every booking status in display order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// IsActive reports whether the booking still occupies an account slot.
func (s Status) IsActive() bool { return s == StatusPending || s == StatusConfirmed }

// AccountStatus is the manual status of an account.
type AccountStatus string

const (
	AccountActive  AccountStatus = "Active"
	AccountBlocked AccountStatus = "Blocked"
)

// UnmarshalJSON accepts the canonical values plus the localized labels
// written by older dashboard exports. Anything unrecognized is Active.
func (s *AccountStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch NormalizeKey(raw) {
	case "blocked", "block", "блок":
		*s = AccountBlocked
	default:
		*s = AccountActive
	}
	return nil
}

// HotelStatus is the manual status of a hotel.
type HotelStatus string

const (
	HotelOK      HotelStatus = "OK"
	HotelBlocked HotelStatus = "BLOCK"
)

func (s *HotelStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch NormalizeKey(raw) {
	case "block", "blocked":
		*s = HotelBlocked
	default:
		*s = HotelOK
	}
	return nil
}

// Note markers appended to account/hotel notes by automated paths.
const (
	NoteAutoCreated     = "AUTO_CREATED_FROM_IMPORT"
	NoteTechBlock       = "TECH_BLOCK"
	NoteRawImport       = "RAW_IMPORT"
	NoteMassBlock       = "MASS_BLOCK"
	NoteMassBlockImport = "MASS_BLOCK_IMPORT"
)

// AppendNote appends marker to notes separated by a single space.
func AppendNote(notes, marker string) string {
	return strings.TrimSpace(notes + " " + marker)
}

// HasNote reports whether notes already carry marker.
func HasNote(notes, marker string) bool {
	return strings.Contains(notes, marker)
}

// =============================================================================
// ENTITIES
// =============================================================================

type Account struct {
	Email        string        `json:"email"`
	Password     string        `json:"password"`
	ManualStatus AccountStatus `json:"manualStatus"`
	Notes        string        `json:"notes"`
	CreatedAt    string        `json:"createdAt"`
}

func (a Account) Key() string     { return NormalizeKey(a.Email) }
func (a Account) IsBlocked() bool { return a.ManualStatus == AccountBlocked }

type Hotel struct {
	HotelID      string      `json:"hotelId"`
	Name         string      `json:"name"`
	ManualStatus HotelStatus `json:"manualStatus"`
	Notes        string      `json:"notes"`
}

func (h Hotel) IsBlocked() bool { return h.ManualStatus == HotelBlocked }

// Booking is one reservation event. HotelNameSnapshot is captured at
// ingestion and does not follow later hotel renames.
type Booking struct {
	BookingID         string          `json:"bookingId"`
	CreatedAt         string          `json:"createdAt"`
	Email             string          `json:"email"`
	BookingNo         string          `json:"bookingNo"`
	Pin               string          `json:"pin"`
	HotelID           string          `json:"hotelId"`
	HotelNameSnapshot string          `json:"hotelNameSnapshot"`
	Cost              decimal.Decimal `json:"cost"`
	CheckIn           string          `json:"checkIn"`
	CheckOut          string          `json:"checkOut"`
	PromoCode         string          `json:"promoCode"`
	RewardAmount      decimal.Decimal `json:"rewardAmount"`
	RewardCurrency    string          `json:"rewardCurrency"`
	RewardType        string          `json:"rewardType"`
	Airline           string          `json:"airline"`
	Status            Status          `json:"status"`
	Level             string          `json:"level"`
	RewardPaidOn      string          `json:"rewardPaidOn"`
	Note              string          `json:"note"`
	Raw               string          `json:"_raw"`
}

// Key returns the dedup key of the booking.
func (b Booking) Key() string { return BookingKey(b.Email, b.BookingNo) }

// IsPaid reports whether the reward has been paid out.
func (b Booking) IsPaid() bool { return strings.TrimSpace(b.RewardPaidOn) != "" }

// IsBonusEvent reports whether the booking contributes to an account's
// bonuses: a positive reward that is either completed or already paid.
func (b Booking) IsBonusEvent() bool {
	if !b.RewardAmount.IsPositive() {
		return false
	}
	return b.Status == StatusCompleted || b.IsPaid()
}

// BookingKey builds the (lowercased email, bookingNo) dedup key.
func BookingKey(email, bookingNo string) string {
	return NormalizeKey(email) + "::" + bookingNo
}

type Sale struct {
	ID     string          `json:"id"`
	Date   string          `json:"date"`
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// SpecialReward is a promo payout credited outside of any booking.
type SpecialReward struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Promo     string          `json:"promo"`
	CreatedAt string          `json:"createdAt"`
}

// =============================================================================
// AUDIT
// =============================================================================

type AuditType string

const (
	AuditAccountCreate    AuditType = "ACCOUNT_CREATE"
	AuditAccountImport    AuditType = "ACCOUNT_IMPORT"
	AuditAccountUpdate    AuditType = "ACCOUNT_UPDATE"
	AuditAccountDelete    AuditType = "ACCOUNT_DELETE"
	AuditHotelCreate      AuditType = "HOTEL_CREATE"
	AuditBookingAdd       AuditType = "BOOKING_ADD"
	AuditSaleAdd          AuditType = "SALE_ADD"
	AuditPromoAdd         AuditType = "PROMO_ADD"
	AuditParseError       AuditType = "PARSE_ERROR"
	AuditAutoBlockAccount AuditType = "AUTO_BLOCK_ACCOUNT"
	AuditAutoBlockHotel   AuditType = "AUTO_BLOCK_HOTEL"
	AuditMassBlock        AuditType = "MASS_BLOCK"
	AuditManualEdit       AuditType = "MANUAL_EDIT"
	AuditSettingsUpdate   AuditType = "SETTINGS_UPDATE"
	AuditSnapshotImport   AuditType = "SNAPSHOT_IMPORT"
)

// AuditEntry is advisory only; no computation reads it.
type AuditEntry struct {
	ID   string    `json:"id"`
	At   string    `json:"at"`
	Type AuditType `json:"type"`
	Msg  string    `json:"msg"`
}
