package parse

import (
	"regexp"
	"strings"
)

var (
	geniusLevelPattern = regexp.MustCompile(`(?i)genius\s*level\s*(1|2|3)`)
	geniusLevelMarker  = regexp.MustCompile(`(?i)genius\s*level`)
)

// ExtractGeniusLevel finds a "Genius Level N" label (N in 1..3) among
// the cells, tolerant of case and internal whitespace. Cells are tried
// one by one, then joined, so a label split over two cells still counts.
func ExtractGeniusLevel(cells []string) string {
	var kept []string
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	for _, c := range kept {
		if m := geniusLevelPattern.FindStringSubmatch(c); m != nil {
			return "Genius Level " + m[1]
		}
	}
	if m := geniusLevelPattern.FindStringSubmatch(strings.Join(kept, " ")); m != nil {
		return "Genius Level " + m[1]
	}
	return ""
}

// ExtractAirline returns the first cell that is not a genius-level label.
func ExtractAirline(cells []string) string {
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c != "" && !geniusLevelMarker.MatchString(c) {
			return c
		}
	}
	return ""
}
