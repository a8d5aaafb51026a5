package rewards

import (
	"strings"

	"github.com/warp/booking-ops/core"
)

// DaysFor returns the payout delay for a reward type. A configured entry
// wins; otherwise "Booking" uses RewardDaysBooking and anything else
// RewardDaysOther.
func DaysFor(rewardType string, s core.Settings) int {
	table := FromSettings(s)
	name := table.Normalize(rewardType)
	if rt, ok := table.Lookup(name); ok {
		return rt.Days
	}
	if name == core.RewardTypeBooking {
		return s.RewardDaysBooking
	}
	return s.RewardDaysOther
}

// ETA is the date the reward becomes payable: checkOut + DaysFor(type).
// Returns "" when checkOut is blank or not a date.
func ETA(checkOut, rewardType string, s core.Settings) string {
	checkOut = strings.TrimSpace(checkOut)
	if checkOut == "" {
		return ""
	}
	if rewardType == "" {
		rewardType = core.RewardTypeBooking
	}
	return core.AddDaysISO(checkOut, DaysFor(rewardType, s))
}

// BookingETA is ETA applied to a booking.
func BookingETA(b core.Booking, s core.Settings) string {
	return ETA(b.CheckOut, b.RewardType, s)
}
