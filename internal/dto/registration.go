package dto

import "github.com/eventide/conreg-api/internal/eventconfig"

// BadgeOpt is a purchasable badge type with its current price.
type BadgeOpt struct {
	Value int    `json:"value"`
	Desc  string `json:"desc"`
	Price int    `json:"price"`
}

// RegistrationInfo is the public snapshot of registration state: current
// prices, availability, and the donation tiers on offer.
type RegistrationInfo struct {
	EventName                string                     `json:"event_name"`
	PreregOpen               bool                       `json:"prereg_open"`
	BadgePrice               int                        `json:"badge_price"`
	GroupPrice               int                        `json:"group_price"`
	OnedayPrice              int                        `json:"oneday_price"`
	BadgesLeftAtCurrentPrice int                        `json:"badges_left_at_current_price"`
	RemainingBadges          int                        `json:"remaining_badges"`
	AtTheDoorOpts            []BadgeOpt                 `json:"at_the_door_opts"`
	DonationTiers            []eventconfig.DonationTier `json:"donation_tiers"`
}
