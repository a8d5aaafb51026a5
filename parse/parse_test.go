package parse_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/parse"
	"github.com/warp/booking-ops/rewards"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func defaultTable() rewards.Table {
	return rewards.FromSettings(core.DefaultSettings())
}

func tsv(cols ...string) string {
	return strings.Join(cols, "\t")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const goldenLine = "2025-12-15\ta@b.com\t5051780387\t6635\t\tHyatt Regency JFK Airport\t6,066.89\t2026-03-12\t2026-03-13\t120.00\tconfirmed\tGenius Level 1"

// =============================================================================
// STATUS
// =============================================================================

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want core.Status
	}{
		{"", core.StatusPending},
		{"weirdtoken", core.StatusPending},
		{"CONFIRMED", core.StatusConfirmed},
		{"conf", core.StatusConfirmed},
		{"Pending", core.StatusPending},
		{"completed", core.StatusCompleted},
		{" Cancelled ", core.StatusCancelled},
		{"canceled", core.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parse.NormalizeStatus(tt.in))
		})
	}
}

// =============================================================================
// BOOKING LINE
// =============================================================================

func TestParseBookingLine_Golden(t *testing.T) {
	row, err := parse.ParseBookingLine(goldenLine, defaultTable())
	require.NoError(t, err)

	assert.Equal(t, "2025-12-15", row.CreatedAt)
	assert.Equal(t, "a@b.com", row.Email)
	assert.Equal(t, "5051780387", row.BookingNo)
	assert.Equal(t, "6635", row.Pin)
	assert.Equal(t, "", row.HotelID)
	assert.Equal(t, "Hyatt Regency JFK Airport", row.HotelName)
	assert.True(t, row.Cost.Equal(dec("6066.89")))
	assert.Equal(t, "2026-03-12", row.CheckIn)
	assert.Equal(t, "2026-03-13", row.CheckOut)
	assert.True(t, row.RewardAmount.Equal(dec("120")))
	assert.Equal(t, core.StatusConfirmed, row.Status)
	assert.Equal(t, "Genius Level 1", row.Level)
	assert.Equal(t, "Booking", row.RewardType)
	assert.Equal(t, "", row.Airline)
	assert.Equal(t, "", row.RewardPaidOn)
	assert.Equal(t, "USD", row.RewardCurrency)
	assert.Equal(t, goldenLine, row.Raw)
}

func TestParseBookingLine_TailIsOrderIndependent(t *testing.T) {
	// GIVEN: level, reward type and paid-on date in arbitrary order
	line := tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02",
		"60", "cancelled", "Genius Level 2", "Copa", "2026-05-20")

	row, err := parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)

	assert.Equal(t, core.StatusCancelled, row.Status)
	assert.Equal(t, "Copa", row.RewardType)
	assert.Equal(t, "2026-05-20", row.RewardPaidOn)
	assert.Equal(t, "Genius Level 2", row.Level)
	assert.Equal(t, "", row.Airline)

	// Same tokens, shuffled.
	line = tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02",
		"60", "cancelled", "2026-05-20", "copa", "genius   level 2")
	row, err = parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)
	assert.Equal(t, "Copa", row.RewardType)
	assert.Equal(t, "2026-05-20", row.RewardPaidOn)
	assert.Equal(t, "Genius Level 2", row.Level)
}

func TestParseBookingLine_Airline(t *testing.T) {
	line := tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02",
		"60", "completed", "Genius Level 3", "United", "Delta")

	row, err := parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)
	assert.Equal(t, "United", row.Airline, "first unclassified non-level token wins")
	assert.Equal(t, "Genius Level 3", row.Level)
}

func TestParseBookingLine_DateBeatsRewardType(t *testing.T) {
	// A reward type that is also a valid date is classified as a date.
	table := rewards.Table{{Name: "2026-05-20", Days: 10}, {Name: "Booking", Days: 14}}
	line := tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02",
		"60", "confirmed", "2026-05-20")

	row, err := parse.ParseBookingLine(line, table)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-20", row.RewardPaidOn)
	assert.Equal(t, "Booking", row.RewardType)
}

func TestParseBookingLine_PromoAndReward(t *testing.T) {
	line := tsv("2025-12-15", "A@B.COM", "BK1", "7", "74", "Bower", "$1,300", "2026-01-01", "2026-01-02",
		"SPRING10", "", "45.5", "pending")

	row, err := parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", row.Email)
	assert.Equal(t, "0007", row.Pin)
	assert.Equal(t, "SPRING10", row.PromoCode)
	assert.True(t, row.RewardAmount.Equal(dec("45.5")))
	assert.True(t, row.Cost.Equal(dec("1300")))
	assert.Equal(t, core.StatusPending, row.Status)
}

func TestParseBookingLine_BetweenZoneLimitation(t *testing.T) {
	// Known limitation: only the first (promo) and last (reward) between
	// tokens are read. "EXTRA" is dropped without an error.
	line := tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02",
		"PROMO", "EXTRA", "25", "confirmed")

	row, err := parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)
	assert.Equal(t, "PROMO", row.PromoCode)
	assert.True(t, row.RewardAmount.Equal(dec("25")))
	assert.NotContains(t, []string{row.PromoCode, row.Airline, row.Note}, "EXTRA")
}

func TestParseBookingLine_SingleNonNumericBetweenIsIgnored(t *testing.T) {
	line := tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02",
		"PROMO", "confirmed")

	row, err := parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)
	assert.Equal(t, "", row.PromoCode)
	assert.True(t, row.RewardAmount.IsZero())
}

func TestParseBookingLine_StatusOnlyAfterFixedColumns(t *testing.T) {
	// A hotel named like a status does not become the anchor.
	line := tsv("2025-12-15", "a@b.com", "BK1", "1", "", "Cancun", "300", "2026-01-01", "2026-01-02",
		"COMP10", "0", "confirmed")

	row, err := parse.ParseBookingLine(line, defaultTable())
	require.NoError(t, err)
	assert.Equal(t, "Cancun", row.HotelName)
	assert.Equal(t, core.StatusConfirmed, row.Status)
	assert.Equal(t, "COMP10", row.PromoCode)
}

func TestParseBookingLine_Rejections(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"blank", "   ", parse.ErrEmptyLine},
		{"too few fields", "not\ta\tvalid", parse.ErrTooFewFields},
		{"no status", tsv("2025-12-15", "a@b.com", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02", "60", "whatever"), parse.ErrNoStatus},
		{"missing email", tsv("2025-12-15", "", "BK1", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02", "60", "confirmed"), parse.ErrMissingKey},
		{"missing bookingNo", tsv("2025-12-15", "a@b.com", "", "1", "74", "Bower", "300", "2026-01-01", "2026-01-02", "60", "confirmed"), parse.ErrMissingKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse.ParseBookingLine(tt.line, defaultTable())
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParsePaste_CollectsErrors(t *testing.T) {
	text := goldenLine + "\r\n\n" + "garbage line\n" + strings.Replace(goldenLine, "5051780387", "BK2", 1) + "\n"

	batch := parse.ParsePaste(text, defaultTable())

	require.Len(t, batch.Rows, 2)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, 2, batch.Errors[0].Line, "line numbers count non-blank lines")
	assert.Equal(t, "garbage line", batch.Errors[0].Raw)
	assert.ErrorIs(t, &batch.Errors[0], parse.ErrTooFewFields)
}

func TestLineError_JSON(t *testing.T) {
	data, err := json.Marshal(parse.LineError{Line: 3, Raw: "x", Err: parse.ErrBadEmail})
	require.NoError(t, err)
	assert.JSONEq(t, `{"line":3,"raw":"x","reason":"email must contain @"}`, string(data))
}

// =============================================================================
// TOKENS
// =============================================================================

func TestExtractGeniusLevel(t *testing.T) {
	assert.Equal(t, "Genius Level 1", parse.ExtractGeniusLevel([]string{"GENIUS LEVEL 1"}))
	assert.Equal(t, "Genius Level 3", parse.ExtractGeniusLevel([]string{"x", "geniuslevel3"}))
	assert.Equal(t, "Genius Level 2", parse.ExtractGeniusLevel([]string{"Genius", "Level 2"}))
	assert.Equal(t, "", parse.ExtractGeniusLevel([]string{"Genius Level 7"}))
	assert.Equal(t, "", parse.ExtractGeniusLevel(nil))
}

func TestExtractAirline(t *testing.T) {
	assert.Equal(t, "Copa Airlines", parse.ExtractAirline([]string{"Genius Level 1", "Copa Airlines"}))
	assert.Equal(t, "", parse.ExtractAirline([]string{"genius level 2", " "}))
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestParseAccountsPaste_Delimiters(t *testing.T) {
	text := strings.Join([]string{
		"One@Mail.com\tpw1",
		"two@mail.com;pw2",
		"three@mail.com,pw3",
		"four@mail.com   pw4",
		"five@mail.com",
		"no-at-sign\tpw",
	}, "\n")

	batch := parse.ParseAccountsPaste(text)

	require.Len(t, batch.Rows, 5)
	assert.Equal(t, parse.AccountRow{Email: "one@mail.com", Password: "pw1"}, batch.Rows[0])
	assert.Equal(t, "pw2", batch.Rows[1].Password)
	assert.Equal(t, "pw3", batch.Rows[2].Password)
	assert.Equal(t, "pw4", batch.Rows[3].Password)
	assert.Equal(t, "", batch.Rows[4].Password)

	require.Len(t, batch.Errors, 1)
	assert.Equal(t, 6, batch.Errors[0].Line)
}

func TestParseAccountsPaste_TabWinsOverComma(t *testing.T) {
	batch := parse.ParseAccountsPaste("a@b.com\tpass,word")
	require.Len(t, batch.Rows, 1)
	assert.Equal(t, "pass,word", batch.Rows[0].Password)
}

func TestFormatAccountsTSV_RoundTrips(t *testing.T) {
	rows := []parse.AccountRow{{Email: "a@b.com", Password: "x"}, {Email: "c@d.com"}}
	back := parse.ParseAccountsPaste(parse.FormatAccountsTSV(rows))
	assert.Equal(t, rows, back.Rows)
}

// =============================================================================
// SPEND
// =============================================================================

func TestParseSpendPaste(t *testing.T) {
	text := strings.Join([]string{
		"2025-02-12\tdemo1@mail.com\t15\tTaxi\tairport",
		"2025-02-15;demo2@mail.com;$1,025.50;Support",
		"2025-02-20 demo7@mail.com 10 SIM card",
		"2025-13-01\tdemo1@mail.com\t5",
		"2025-02-12\tnobody\t5",
		"2025-02-12\tdemo1@mail.com\tten",
	}, "\n")

	batch := parse.ParseSpendPaste(text)

	require.Len(t, batch.Rows, 3)
	assert.Equal(t, "Taxi airport", batch.Rows[0].Note)
	assert.True(t, batch.Rows[1].Amount.Equal(dec("1025.5")))
	assert.Equal(t, "SIM card", batch.Rows[2].Note)

	require.Len(t, batch.Errors, 3)
	assert.ErrorIs(t, &batch.Errors[0], parse.ErrBadDate)
	assert.ErrorIs(t, &batch.Errors[1], parse.ErrBadEmail)
	assert.ErrorIs(t, &batch.Errors[2], parse.ErrBadAmount)
}

// =============================================================================
// BLOCK LIST
// =============================================================================

func TestParseBlockList(t *testing.T) {
	batch := parse.ParseBlockList("A@b.com\n\n a@B.com \nnot-an-email\nc@d.com")
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, batch.Emails)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "not-an-email", batch.Errors[0].Raw)
}
