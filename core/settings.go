package core

import "github.com/shopspring/decimal"

// RewardType maps a reward label to the number of days after check-out
// before the reward becomes eligible for payout.
type RewardType struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// Settings is process-wide configuration. It is never derived.
type Settings struct {
	GoldThreshold        decimal.Decimal `json:"goldThreshold"`
	PlatinumAfterDays    int             `json:"platinumAfterDays"`
	CooldownDays         int             `json:"cooldownDays"`
	MaxActiveBookings    int             `json:"maxActiveBookings"`
	TechBlockConsecutive int             `json:"techBlockConsecutive"`
	TechBlockTotal       int             `json:"techBlockTotal"`
	HotelTechBlockTotal  int             `json:"hotelTechBlockTotal"`
	RewardDaysBooking    int             `json:"rewardDaysBooking"`
	RewardDaysOther      int             `json:"rewardDaysOther"`
	RewardTypes          []RewardType    `json:"rewardTypes"`
	AutoCreateFromImport bool            `json:"autoCreateFromImport"`
	AutoWriteTechBlocks  bool            `json:"autoWriteTechBlocks"`
}

// Defaults used whenever a setting is missing or not numeric.
const (
	DefaultGoldThreshold        = 300
	DefaultPlatinumAfterDays    = 40
	DefaultCooldownDays         = 20
	DefaultMaxActiveBookings    = 3
	DefaultTechBlockConsecutive = 3
	DefaultTechBlockTotal       = 3
	DefaultHotelTechBlockTotal  = 3
	DefaultRewardDaysBooking    = 14
	DefaultRewardDaysOther      = 64
)

// RewardTypeBooking is the fallback reward type.
const RewardTypeBooking = "Booking"

// DefaultRewardTypes returns a fresh copy of the built-in reward table.
func DefaultRewardTypes() []RewardType {
	return []RewardType{
		{Name: RewardTypeBooking, Days: 14},
		{Name: "Copa", Days: 64},
		{Name: "AA", Days: 64},
		{Name: "CC", Days: 64},
	}
}

func DefaultSettings() Settings {
	return Settings{
		GoldThreshold:        decimal.NewFromInt(DefaultGoldThreshold),
		PlatinumAfterDays:    DefaultPlatinumAfterDays,
		CooldownDays:         DefaultCooldownDays,
		MaxActiveBookings:    DefaultMaxActiveBookings,
		TechBlockConsecutive: DefaultTechBlockConsecutive,
		TechBlockTotal:       DefaultTechBlockTotal,
		HotelTechBlockTotal:  DefaultHotelTechBlockTotal,
		RewardDaysBooking:    DefaultRewardDaysBooking,
		RewardDaysOther:      DefaultRewardDaysOther,
		RewardTypes:          DefaultRewardTypes(),
		AutoCreateFromImport: true,
		AutoWriteTechBlocks:  true,
	}
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	out := s
	out.RewardTypes = append([]RewardType(nil), s.RewardTypes...)
	return out
}
