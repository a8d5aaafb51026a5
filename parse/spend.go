package parse

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
)

// SpendRow is one cash outflow line.
type SpendRow struct {
	Date   string          `json:"date"`
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type SpendBatch struct {
	Rows   []SpendRow  `json:"rows"`
	Errors []LineError `json:"errors"`
}

// ParseSpendPaste reads "date<delim>email<delim>amount<delim>note..."
// lines. Every precondition must hold or the whole line is rejected;
// nothing is partially imported. Fields after the amount are joined with
// single spaces into the note.
func ParseSpendPaste(text string) SpendBatch {
	var batch SpendBatch
	for i, l := range lines(text) {
		parts := splitDelimited(l)
		date := field(parts, 0)
		email := core.NormalizeKey(field(parts, 1))
		amount := field(parts, 2)

		var err error
		switch {
		case !core.IsISODateLike(date):
			err = ErrBadDate
		case !strings.Contains(email, "@"):
			err = ErrBadEmail
		case !core.IsNumericLike(amount):
			err = ErrBadAmount
		}
		if err != nil {
			batch.Errors = append(batch.Errors, LineError{Line: i + 1, Raw: l, Err: err})
			continue
		}

		var note []string
		for j := 3; j < len(parts); j++ {
			if p := strings.TrimSpace(parts[j]); p != "" {
				note = append(note, p)
			}
		}
		batch.Rows = append(batch.Rows, SpendRow{
			Date:   date,
			Email:  email,
			Amount: core.NormalizeMoney(amount),
			Note:   strings.Join(note, " "),
		})
	}
	return batch
}
