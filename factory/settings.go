/*
Package factory provides lenient JSON to Settings conversion.

PURPOSE:
  Settings arrive from a browser form, an old export or a TOML file.
  Values may be numbers, numeric strings, nulls or garbage. The factory
  turns any of those into a complete core.Settings so the derivation
  engine never compares against NaN or a zero threshold by accident.

RULES:
  - Numbers and numeric strings are accepted ("300", 300, "  40 ").
  - Missing, null, negative or non-numeric values fall back to the
    documented default (DecodeSettings) or keep the current value
    (PatchSettings, for missing keys only).
  - Booleans accept true/false and their string forms.
  - rewardTypes entries without a name are dropped; an empty table
    falls back to the defaults.

JSON SCHEMA:
  {
    "goldThreshold": 300,
    "platinumAfterDays": 40,
    "cooldownDays": 20,
    "maxActiveBookings": 3,
    "techBlockConsecutive": 3,
    "techBlockTotal": 3,
    "hotelTechBlockTotal": 3,
    "rewardDaysBooking": 14,
    "rewardDaysOther": 64,
    "rewardTypes": [{"name": "Booking", "days": 14}, {"name": "Copa", "days": 64}],
    "autoCreateFromImport": true,
    "autoWriteTechBlocks": true
  }

USAGE:
  settings, err := factory.DecodeSettings(body)
  next, err := factory.PatchSettings(current, []byte(`{"cooldownDays":"10"}`))

SEE ALSO:
  - core/settings.go: Settings type and defaults
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/booking-ops/core"
)

// ErrInvalidSettings is returned when the payload is not a JSON object.
var ErrInvalidSettings = errors.New("invalid settings")

// =============================================================================
// ENTRY POINTS
// =============================================================================

// DecodeSettings builds Settings from a JSON object, defaulting anything
// missing or unusable. It fails only when data is not a JSON object.
func DecodeSettings(data []byte) (core.Settings, error) {
	return PatchSettings(core.DefaultSettings(), data)
}

// PatchSettings applies a partial JSON object to base. Keys that are
// absent keep base's value; keys that are present but unusable reset to
// the default.
func PatchSettings(base core.Settings, data []byte) (core.Settings, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return base, err
	}

	out := base.Clone()
	def := core.DefaultSettings()

	if raw, ok := fields["goldThreshold"]; ok {
		out.GoldThreshold = decimalOr(raw, def.GoldThreshold)
	}
	intField(fields, "platinumAfterDays", &out.PlatinumAfterDays, def.PlatinumAfterDays)
	intField(fields, "cooldownDays", &out.CooldownDays, def.CooldownDays)
	intField(fields, "maxActiveBookings", &out.MaxActiveBookings, def.MaxActiveBookings)
	intField(fields, "techBlockConsecutive", &out.TechBlockConsecutive, def.TechBlockConsecutive)
	intField(fields, "techBlockTotal", &out.TechBlockTotal, def.TechBlockTotal)
	intField(fields, "hotelTechBlockTotal", &out.HotelTechBlockTotal, def.HotelTechBlockTotal)
	intField(fields, "rewardDaysBooking", &out.RewardDaysBooking, def.RewardDaysBooking)
	intField(fields, "rewardDaysOther", &out.RewardDaysOther, def.RewardDaysOther)
	boolField(fields, "autoCreateFromImport", &out.AutoCreateFromImport, def.AutoCreateFromImport)
	boolField(fields, "autoWriteTechBlocks", &out.AutoWriteTechBlocks, def.AutoWriteTechBlocks)

	if raw, ok := fields["rewardTypes"]; ok {
		out.RewardTypes = rewardTypes(raw, out.RewardDaysOther)
	}
	if len(out.RewardTypes) == 0 {
		out.RewardTypes = core.DefaultRewardTypes()
	}
	return out, nil
}

// =============================================================================
// FIELD DECODERS
// =============================================================================

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if fields == nil {
		return map[string]json.RawMessage{}, nil
	}
	return fields, nil
}

// number reads a JSON number or numeric string. ok is false for null,
// non-numeric and negative values.
func number(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, false
		}
	} else {
		text = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

func decimalOr(raw json.RawMessage, def decimal.Decimal) decimal.Decimal {
	if d, ok := number(raw); ok {
		return d
	}
	return def
}

// maxSettingInt caps integer settings; anything larger falls back to the
// default instead of wrapping negative.
var maxSettingInt = decimal.NewFromInt(math.MaxInt32)

func intOr(raw json.RawMessage, def int) int {
	if d, ok := number(raw); ok {
		if d = d.Truncate(0); d.GreaterThan(maxSettingInt) {
			return def
		}
		return int(d.IntPart())
	}
	return def
}

func intField(fields map[string]json.RawMessage, key string, dst *int, def int) {
	if raw, ok := fields[key]; ok {
		*dst = intOr(raw, def)
	}
}

func boolField(fields map[string]json.RawMessage, key string, dst *bool, def bool) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil && !isNull(raw) {
		*dst = b
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "on":
			*dst = true
			return
		case "false", "0", "no", "off":
			*dst = false
			return
		}
	}
	*dst = def
}

// rewardTypes reads [{name, days}]. Entries without a name are dropped;
// unusable days default to otherDays (14 for Booking).
func rewardTypes(raw json.RawMessage, otherDays int) []core.RewardType {
	var entries []struct {
		Name string          `json:"name"`
		Days json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	out := make([]core.RewardType, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		def := otherDays
		if strings.EqualFold(name, core.RewardTypeBooking) {
			def = core.DefaultRewardDaysBooking
		}
		out = append(out, core.RewardType{Name: name, Days: intOr(e.Days, def)})
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
