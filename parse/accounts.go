package parse

import (
	"strings"

	"github.com/warp/booking-ops/core"
)

// AccountRow is one email/password pair.
type AccountRow struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountsBatch struct {
	Rows   []AccountRow `json:"rows"`
	Errors []LineError  `json:"errors"`
}

// ParseAccountsPaste reads "email<delim>password" lines. The delimiter is
// detected per line (tab, ';', ',', then whitespace). The password is
// optional; a first token without "@" rejects the line.
func ParseAccountsPaste(text string) AccountsBatch {
	var batch AccountsBatch
	for i, l := range lines(text) {
		parts := splitDelimited(l)
		email := core.NormalizeKey(field(parts, 0))
		if !strings.Contains(email, "@") {
			batch.Errors = append(batch.Errors, LineError{Line: i + 1, Raw: l, Err: ErrBadEmail})
			continue
		}
		batch.Rows = append(batch.Rows, AccountRow{Email: email, Password: field(parts, 1)})
	}
	return batch
}

// FormatAccountsTSV renders rows as "email\tpassword" lines, the inverse
// of ParseAccountsPaste.
func FormatAccountsTSV(rows []AccountRow) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Email + "\t" + r.Password
	}
	return strings.Join(out, "\n")
}
