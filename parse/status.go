package parse

import (
	"strings"
	"unicode"

	"github.com/warp/booking-ops/core"
)

var statusPrefixes = []struct {
	prefix string
	status core.Status
}{
	{"conf", core.StatusConfirmed},
	{"pend", core.StatusPending},
	{"comp", core.StatusCompleted},
	{"canc", core.StatusCancelled},
}

// NormalizeStatus maps free text onto the four booking statuses by
// case-insensitive prefix. Empty or unrecognized input is Pending, so an
// ambiguous row still enters the pipeline as an actionable booking.
func NormalizeStatus(raw string) core.Status {
	if st, ok := matchStatus(raw); ok {
		return st
	}
	return core.StatusPending
}

func matchStatus(raw string) (core.Status, bool) {
	s := core.NormalizeKey(raw)
	for _, p := range statusPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.status, true
		}
	}
	return "", false
}

// statusToken reports whether a column holds a status word. Only purely
// alphabetic tokens qualify, so promo codes like "COMP10" are not
// mistaken for the status column.
func statusToken(raw string) (core.Status, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return matchStatus(s)
}
