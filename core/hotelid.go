package core

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

var nonSlugRun = regexp.MustCompile(`[^A-Z0-9]+`)

const (
	hotelIDPrefixMax = 18
	defaultHotelName = "HOTEL"
)

// StableHotelID derives a synthetic hotel ID from a name:
// "H_" + slug (max 18 chars) + "_" + 4 hex digits of a rolling *31 hash.
//
// The same name always maps to the same ID, so re-importing a paste does
// not create a second hotel. It is a best-effort dedup key, not a
// collision-free identifier.
func StableHotelID(name string) string {
	s := name
	if s == "" {
		s = defaultHotelName
	}

	base := nonSlugRun.ReplaceAllString(strings.ToUpper(s), "_")
	base = strings.Trim(base, "_")
	if len(base) > hotelIDPrefixMax {
		base = base[:hotelIDPrefixMax]
	}

	// Hash over UTF-16 code units so IDs match ones minted by the dashboard.
	var hash uint32
	for _, c := range utf16.Encode([]rune(s)) {
		hash = hash*31 + uint32(c)
	}
	tail := (fmt.Sprintf("%X", hash) + "0000")[:4]

	return "H_" + base + "_" + tail
}
