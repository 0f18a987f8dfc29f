package eventconfig

import "time"

// AttendeePriceAt returns the attendee badge price as of the given moment,
// before any count-based limits. Bumps are sorted ascending and the latest
// one at or before the moment wins.
func (e *Event) AttendeePriceAt(at time.Time) int {
	price := e.InitialAttendee
	if !e.PriceBumpsEnabled {
		return price
	}
	for _, b := range e.PriceBumps {
		if at.Before(b.At) {
			break
		}
		price = b.Price
	}
	return price
}

// GroupPriceAt is the attendee price minus the flat group discount.
func (e *Event) GroupPriceAt(at time.Time) int {
	return e.AttendeePriceAt(at) - e.GroupDiscount
}

// OnedayPriceAt prices a single-day badge for the weekday of the given
// moment, falling back to the default when no per-day price is configured.
func (e *Event) OnedayPriceAt(at time.Time) int {
	if p, ok := e.SingleDayPrices[at.In(e.Timezone).Weekday().String()]; ok && p > 0 {
		return p
	}
	return e.DefaultSingleDay
}

// PresoldOnedayPrice prices a presold one-day badge type, which is named
// after a weekday. Unknown badge types fall back to the default.
func (e *Event) PresoldOnedayPrice(badgeType int) int {
	name, ok := e.Badges[badgeType]
	if !ok {
		return e.DefaultSingleDay
	}
	if p, ok := e.SingleDayPrices[name]; ok && p > 0 {
		return p
	}
	return e.DefaultSingleDay
}
