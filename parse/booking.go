/*
Package parse turns pasted spreadsheet text into structured rows.

PURPOSE:
  Operators copy ranges out of spreadsheets and paste them in. Column
  counts vary between exports, so the parsers are permissive about
  delimiters and optional columns but strict about minimum shape.

BOOKING LINE LAYOUT (tab-separated, at least 10 fields):
  createdAt  email  bookingNo  pin  hotelId  hotelName  cost  checkIn  checkOut
  [promoCode] ... [reward]  STATUS  [level] [rewardType] [rewardPaidOn] [airline]

  The status column is the anchor: the first purely alphabetic field at
  or after index 9 that prefix-matches conf/pend/comp/canc. Fields before
  it ("between" zone) carry promo code and reward amount; fields after
  it ("tail" zone) are classified one by one, order-independent.

TAIL CLASSIFICATION (fixed priority):
  1. ISO date        -> rewardPaidOn
  2. reward type     -> rewardType (configured table, case-insensitive)
  3. anything else   -> remainder; scanned for "Genius Level N" and the
                        first non-level token becomes the airline

KNOWN LIMITATION:
  The between zone assumes at most one promo code (first) and one reward
  amount (last). Further non-numeric tokens there are dropped silently.

SEE ALSO:
  - accounts.go, spend.go, blocklist.go: the other paste formats
  - rewards/types.go: reward-type table
*/
package parse

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/rewards"
)

const (
	minBookingFields = 10
	firstOptionalCol = 9
	pinWidth         = 4
	defaultCurrency  = "USD"
)

// BookingRow is one parsed booking line, before it is assigned an ID
// and joined to an account and hotel.
type BookingRow struct {
	CreatedAt      string          `json:"createdAt"`
	Email          string          `json:"email"`
	BookingNo      string          `json:"bookingNo"`
	Pin            string          `json:"pin"`
	HotelID        string          `json:"hotelId"`
	HotelName      string          `json:"hotelName"`
	Cost           decimal.Decimal `json:"cost"`
	CheckIn        string          `json:"checkIn"`
	CheckOut       string          `json:"checkOut"`
	PromoCode      string          `json:"promoCode"`
	RewardAmount   decimal.Decimal `json:"rewardAmount"`
	RewardCurrency string          `json:"rewardCurrency"`
	Status         core.Status     `json:"status"`
	Level          string          `json:"level"`
	RewardType     string          `json:"rewardType"`
	Airline        string          `json:"airline"`
	RewardPaidOn   string          `json:"rewardPaidOn"`
	Note           string          `json:"note"`
	Raw            string          `json:"_raw"`
}

// BookingBatch is the result of parsing a whole paste.
type BookingBatch struct {
	Rows   []BookingRow `json:"rows"`
	Errors []LineError  `json:"errors"`
}

// ParseBookingLine parses one tab-separated booking line. It never
// panics; any malformed line yields an error wrapping one of
// ErrEmptyLine, ErrTooFewFields, ErrNoStatus or ErrMissingKey.
func ParseBookingLine(line string, table rewards.Table) (BookingRow, error) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return BookingRow{}, ErrEmptyLine
	}

	parts := strings.Split(raw, "\t")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < minBookingFields {
		return BookingRow{}, ErrTooFewFields
	}

	// Fixed columns are skipped: a hotel named "Conference Inn" would
	// otherwise anchor as the status.
	statusIdx := -1
	var status core.Status
	for i := firstOptionalCol; i < len(parts); i++ {
		if st, ok := statusToken(parts[i]); ok {
			statusIdx, status = i, st
			break
		}
	}
	if statusIdx == -1 {
		return BookingRow{}, ErrNoStatus
	}

	row := BookingRow{
		CreatedAt:      parts[0],
		Email:          core.NormalizeKey(parts[1]),
		BookingNo:      parts[2],
		Pin:            leftPad(parts[3], pinWidth, '0'),
		HotelID:        parts[4],
		HotelName:      parts[5],
		Cost:           core.NormalizeMoney(parts[6]),
		CheckIn:        parts[7],
		CheckOut:       parts[8],
		RewardAmount:   decimal.Zero,
		RewardCurrency: defaultCurrency,
		Status:         status,
		RewardType:     core.RewardTypeBooking,
		Raw:            raw,
	}

	between := parts[firstOptionalCol:statusIdx]
	if n := len(between); n >= 1 {
		if last := between[n-1]; core.IsNumericLike(last) {
			row.RewardAmount = core.NormalizeMoney(last)
		}
		if first := between[0]; n > 1 && !core.IsNumericLike(first) {
			row.PromoCode = first
		}
	}

	var remainder []string
	for _, tok := range parts[statusIdx+1:] {
		if tok == "" {
			continue
		}
		switch classifyTail(tok, table) {
		case tailPaidOn:
			row.RewardPaidOn = tok
		case tailRewardType:
			row.RewardType = table.Normalize(tok)
		default:
			remainder = append(remainder, tok)
		}
	}
	row.Level = ExtractGeniusLevel(remainder)
	row.Airline = ExtractAirline(remainder)

	if row.CreatedAt == "" || row.Email == "" || row.BookingNo == "" {
		return BookingRow{}, ErrMissingKey
	}
	return row, nil
}

type tailKind int

const (
	tailUnclassified tailKind = iota
	tailPaidOn
	tailRewardType
)

// classifyTail assigns each tail token exactly one kind. The date check
// runs before the reward-type lookup.
func classifyTail(tok string, table rewards.Table) tailKind {
	if core.IsISODateLike(tok) {
		return tailPaidOn
	}
	if table.Contains(tok) {
		return tailRewardType
	}
	return tailUnclassified
}

// ParsePaste runs ParseBookingLine over every non-blank line and
// collects the failures instead of stopping at them.
func ParsePaste(text string, table rewards.Table) BookingBatch {
	var batch BookingBatch
	for i, l := range lines(text) {
		row, err := ParseBookingLine(l, table)
		if err != nil {
			batch.Errors = append(batch.Errors, LineError{Line: i + 1, Raw: l, Err: err})
			continue
		}
		batch.Rows = append(batch.Rows, row)
	}
	return batch
}
