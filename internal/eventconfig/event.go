// Package eventconfig loads the event INI file and derives the computed
// settings the registration system runs on: deadlines, enums, price tables,
// badge ranges, and checklists. The resulting Event is immutable after Load;
// anything that depends on the current time or database state goes through a
// per-request Snapshot instead.
package eventconfig

import (
	"strings"
	"time"
)

// Opt is an (enum value, description) pair, ordered as configured.
type Opt struct {
	Value int    `json:"value"`
	Desc  string `json:"desc"`
}

// Enum is a config-defined enumeration. Values are derived from a truncated
// hash of the option name so they stay stable across reloads without explicit
// numeric assignment. Price enums invert the lookup (description to amount).
type Enum struct {
	Name   string
	Opts   []Opt
	Vars   []string
	Lookup map[int]string
	Prices map[string]int
}

// PriceBump raises the attendee badge price once the given date passes.
type PriceBump struct {
	At    time.Time
	Price int
}

// PriceLimit raises the attendee badge price once the given number of badges
// has been sold.
type PriceLimit struct {
	Cap   int
	Price int
}

// AgeGroup describes one configured age bracket.
type AgeGroup struct {
	Value       int    `json:"value"`
	Desc        string `json:"desc"`
	MinAge      int    `json:"min_age"`
	MaxAge      int    `json:"max_age"`
	Discount    int    `json:"discount"`
	ConsentForm bool   `json:"consent_form"`
}

// DescLink is a single donation perk description with its info link.
type DescLink struct {
	Description string `json:"description"`
	Link        string `json:"link"`
}

// DonationTier is a donation level with its cumulative perk descriptions
// (higher tiers include everything below them).
type DonationTier struct {
	Name            string     `json:"name"`
	Price           int        `json:"price"`
	Description     string     `json:"description"`
	Link            string     `json:"link"`
	AllDescriptions []DescLink `json:"all_descriptions"`
}

// Event is the fully-resolved event configuration. Built once at startup and
// treated as read-only from then on.
type Event struct {
	Name     string
	Year     int
	Timezone *time.Location

	// Epoch is when the event starts, Eschaton when it ends. Dates holds
	// every named deadline from the [dates] section, including those two;
	// deadlines configured empty are present with a zero time.
	Epoch    time.Time
	Eschaton time.Time
	Dates    map[string]time.Time

	InitialAttendee              int
	GroupDiscount                int
	DefaultSingleDay             int
	PriceBumpsEnabled            bool
	HardcoreOptimizationsEnabled bool
	MaxBadgeSales                int
	MaxDealerApps                int
	OneDaysEnabled               bool
	PresellOneDays               bool
	GroupsEnabled                bool
	KioskCCEnabled               bool
	SetupShiftDays               int
	MaxTables                    int

	SingleDayPrices    map[string]int
	Stocks             map[string]int
	PriceBumps         []PriceBump
	PriceLimits        []PriceLimit
	OrderedPriceLimits []int

	Enums  map[string]*Enum
	Values map[string]int

	Badges                 map[int]string
	BadgeRanges            map[int][2]int
	MaxBadge               int
	BadgeTypePrices        map[int]int
	PreassignedBadgeTypes  []int
	TransferableBadgeTypes []int

	AgeGroups         map[int]AgeGroup
	TablePrices       map[int]int
	DefaultTablePrice int
	DonationTiers     []DonationTier
	DeptHeadChecklist map[string]time.Time
	VolunteerChecklist []string

	ConLength        int
	EventNameAndYear string
	ShiftsStartDay   time.Time
	StartTimeOpts    []time.Time
	DaysOfWeek       map[string]bool

	secrets map[string]string
}

// Value returns the enum value registered for the given name, if any. Names
// are matched case-insensitively against their upper-case form.
func (e *Event) Value(name string) (int, bool) {
	v, ok := e.Values[strings.ToUpper(name)]
	return v, ok
}

// Date returns the named deadline. The second result distinguishes "not
// configured at all" from a deadline configured empty (zero time).
func (e *Event) Date(name string) (time.Time, bool) {
	d, ok := e.Dates[strings.ToUpper(name)]
	return d, ok
}

// Stock returns the configured stock limit for the given item name.
func (e *Event) Stock(name string) (int, bool) {
	s, ok := e.Stocks[strings.ToUpper(name)]
	return s, ok
}

// Secret looks up a [secret] section entry case-insensitively.
func (e *Event) Secret(name string) (string, bool) {
	v, ok := e.secrets[strings.ToLower(name)]
	return v, ok
}

// TablePrice returns the price for the given table number, falling back to
// the configured default.
func (e *Event) TablePrice(tables int) int {
	if p, ok := e.TablePrices[tables]; ok {
		return p
	}
	return e.DefaultTablePrice
}

// BadgeDesc returns the human-readable description of a badge type value.
func (e *Event) BadgeDesc(badgeType int) string {
	return e.Badges[badgeType]
}
