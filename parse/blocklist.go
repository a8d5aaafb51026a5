package parse

import (
	"strings"

	"github.com/warp/booking-ops/core"
)

type BlockBatch struct {
	Emails []string    `json:"emails"`
	Errors []LineError `json:"errors"`
}

// ParseBlockList reads one email per line for a mass block. Duplicate
// emails collapse to the first occurrence.
func ParseBlockList(text string) BlockBatch {
	var batch BlockBatch
	seen := make(map[string]bool)
	for i, l := range lines(text) {
		email := core.NormalizeKey(l)
		if !strings.Contains(email, "@") {
			batch.Errors = append(batch.Errors, LineError{Line: i + 1, Raw: l, Err: ErrBadEmail})
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		batch.Emails = append(batch.Emails, email)
	}
	return batch
}
