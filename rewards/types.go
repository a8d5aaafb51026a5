/*
Package rewards resolves reward types and reward eligibility dates.

PURPOSE:
  Every booking carries a reward type ("Booking", "Copa", "AA", ...). The
  type decides how many days after check-out the reward becomes payable.
  The table of known types is configurable through core.Settings.

NORMALIZATION RULES:
  Reward-type normalization is identity-preserving on a miss: an unknown
  label is kept verbatim (trimmed) instead of being coerced to "Booking".
  Contrast with parse.NormalizeStatus, which is closed and defaults to
  Pending.

EXAMPLE:
  table := rewards.FromSettings(settings)
  table.Normalize("copa")   // "Copa"
  table.Normalize("Amex")   // "Amex"
  table.Normalize("")       // "Booking"

SEE ALSO:
  - eta.go: reward ETA computation
  - core/settings.go: RewardType and the default table
*/
package rewards

import (
	"strings"

	"github.com/warp/booking-ops/core"
)

// Table is an ordered list of known reward types.
type Table []core.RewardType

// FromSettings returns the configured table, or the built-in defaults
// when none is configured.
func FromSettings(s core.Settings) Table {
	if len(s.RewardTypes) > 0 {
		return Table(s.RewardTypes)
	}
	return Table(core.DefaultRewardTypes())
}

// Lookup finds a type by case-insensitive name.
func (t Table) Lookup(token string) (core.RewardType, bool) {
	key := core.NormalizeKey(token)
	if key == "" {
		return core.RewardType{}, false
	}
	for _, rt := range t {
		if core.NormalizeKey(rt.Name) == key {
			return rt, true
		}
	}
	return core.RewardType{}, false
}

// Contains reports whether token names a configured type.
func (t Table) Contains(token string) bool {
	_, ok := t.Lookup(token)
	return ok
}

// Normalize maps raw to the canonical configured name. Empty input is
// "Booking"; an unknown label is returned trimmed, unchanged.
func (t Table) Normalize(raw string) string {
	key := core.NormalizeKey(raw)
	if key == "" {
		return core.RewardTypeBooking
	}
	if rt, ok := t.Lookup(raw); ok {
		return rt.Name
	}
	if key == strings.ToLower(core.RewardTypeBooking) {
		return core.RewardTypeBooking
	}
	return strings.TrimSpace(raw)
}

// Names returns the configured type names in order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, rt := range t {
		names[i] = rt.Name
	}
	return names
}
