package eventconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadTestEvent(t *testing.T) *Event {
	t.Helper()
	e, err := Load(filepath.Join("testdata", "event.ini"), zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestParseDeadline(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"with hour", "2026-08-01 23", time.Date(2026, 8, 1, 23, 0, 0, 0, loc)},
		{"bare date means end of day", "2026-01-15", time.Date(2026, 1, 15, 23, 59, 0, 0, loc)},
		{"empty", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeadline(tt.raw, loc)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}

	_, err := ParseDeadline("not a date", loc)
	assert.Error(t, err)
}

func TestLoadDates(t *testing.T) {
	e := loadTestEvent(t)

	assert.Equal(t, time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC), e.Epoch)
	assert.Equal(t, time.Date(2026, 9, 6, 18, 0, 0, 0, time.UTC), e.Eschaton)

	prereg, ok := e.Date("prereg_open")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC), prereg)

	// Configured but empty deadlines stay present as zero times.
	placeholder, ok := e.Date("placeholder_deadline")
	require.True(t, ok)
	assert.True(t, placeholder.IsZero())

	_, ok = e.Date("never_configured")
	assert.False(t, ok)
}

func TestLoadEnums(t *testing.T) {
	e := loadTestEvent(t)

	badge, ok := e.Enums["BADGE"]
	require.True(t, ok)

	attendee, ok := e.Value("attendee_badge")
	require.True(t, ok)
	assert.Equal(t, DeriveValue("attendee_badge"), attendee)
	assert.Equal(t, "Attendee", badge.Lookup[attendee])

	// Presold one-day badges get injected per event day.
	for _, day := range []string{"Friday", "Saturday", "Sunday"} {
		val, ok := e.Value(day)
		require.True(t, ok, day)
		assert.Equal(t, day, e.BadgeDesc(val))
		oneDay, _ := e.Value("one_day_badge")
		assert.Equal(t, e.BadgeRanges[oneDay], e.BadgeRanges[val], day)
	}
	_, ok = e.Value("Monday")
	assert.False(t, ok, "weekdays outside the event must not become badges")

	tier, ok := e.Enums["DONATION_TIER"]
	require.True(t, ok)
	assert.Equal(t, "Supporter", tier.Lookup[60])
	assert.Equal(t, "Shirt", tier.Lookup[20])
}

func TestLoadPrices(t *testing.T) {
	e := loadTestEvent(t)

	require.Len(t, e.PriceBumps, 2)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), e.PriceBumps[0].At)
	assert.Equal(t, 55, e.PriceBumps[0].Price)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), e.PriceBumps[1].At)
	assert.Equal(t, 65, e.PriceBumps[1].Price)

	require.Len(t, e.PriceLimits, 2)
	assert.Equal(t, PriceLimit{Cap: 300, Price: 55}, e.PriceLimits[0])
	assert.Equal(t, []int{55, 65}, e.OrderedPriceLimits)

	assert.Equal(t, 100, e.TablePrice(3))
	assert.Equal(t, 80, e.TablePrice(1))
}

func TestLoadDonationTiers(t *testing.T) {
	e := loadTestEvent(t)

	require.Len(t, e.DonationTiers, 2)
	assert.Equal(t, "Shirt", e.DonationTiers[0].Name)
	assert.Equal(t, 20, e.DonationTiers[0].Price)
	require.Len(t, e.DonationTiers[0].AllDescriptions, 1)

	supporter := e.DonationTiers[1]
	assert.Equal(t, 60, supporter.Price)
	// Cumulative perks: the shirt perk plus the two supporter perks.
	require.Len(t, supporter.AllDescriptions, 3)
	assert.Equal(t, "Name in program", supporter.AllDescriptions[2].Description)
	assert.Empty(t, supporter.AllDescriptions[2].Link)
}

func TestLoadChecklists(t *testing.T) {
	e := loadTestEvent(t)

	assert.Equal(t, []string{
		"https://example.test/handbook",
		"https://example.test/agreement",
	}, e.VolunteerChecklist)

	budget, ok := e.DeptHeadChecklist["budget"]
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 6, 1, 23, 59, 0, 0, time.UTC), budget)
}

func TestLoadRejectsNamedChecklistSteps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "event.ini")
	cfg := `[appconf]
event_name = Broken
event_timezone = UTC

[dates]
epoch = 2026-09-04 10
eschaton = 2026-09-06 18

[volunteer_checklist]
first = https://example.test/handbook
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volunteer_checklist")
}

func TestLoadDerived(t *testing.T) {
	e := loadTestEvent(t)

	assert.Equal(t, "Stelliferous 2026", e.EventNameAndYear)
	assert.Equal(t, 56, e.ConLength)
	assert.Len(t, e.StartTimeOpts, 56)
	assert.Equal(t, e.Epoch.AddDate(0, 0, -2), e.ShiftsStartDay)

	staff, _ := e.Value("staff_badge")
	assert.Equal(t, []int{staff}, e.PreassignedBadgeTypes)
	assert.Equal(t, [2]int{100000, 199999}, e.BadgeRanges[staff])
	assert.Equal(t, 299999, e.MaxBadge)

	// Unknown badge types in the price table are skipped, known ones kept.
	assert.Equal(t, 0, e.BadgeTypePrices[staff])
	assert.Len(t, e.BadgeTypePrices, 1)

	secret, ok := e.Secret("BLOCK_BUSTER_KEYS")
	require.True(t, ok)
	assert.Equal(t, "5678", secret)
}
