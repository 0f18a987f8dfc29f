package eventconfig

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

const (
	// Deadline strings carry either a date plus hour or a bare date, which
	// means end of that day.
	deadlineHourLayout = "2006-01-02 15"
	deadlineDayLayout  = "2006-01-02 15:04"

	// Price bump keys use a compact hour-minute form instead.
	bumpHourLayout = "2006-01-02 1504"
	bumpDayLayout  = "2006-01-02"
)

// ParseDeadline parses a [dates]-style value: "2006-01-02 15" is taken at
// hour granularity, a bare date defaults to 23:59 of that day, and an empty
// string yields the zero time. Results are localized to loc.
func ParseDeadline(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if strings.Contains(raw, " ") {
		return time.ParseInLocation(deadlineHourLayout, raw, loc)
	}
	return time.ParseInLocation(deadlineDayLayout, raw+" 23:59", loc)
}

func parseBumpDate(raw string, loc *time.Location) (time.Time, error) {
	if strings.Contains(raw, " ") {
		return time.ParseInLocation(bumpHourLayout, raw, loc)
	}
	return time.ParseInLocation(bumpDayLayout, raw, loc)
}

// Load reads and fully resolves the event configuration file. Any error here
// is fatal for the process: serving requests against a half-built event
// config is never correct.
func Load(path string, logger *zap.Logger) (*Event, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load event config: %w", err)
	}

	e := &Event{
		Dates:             make(map[string]time.Time),
		SingleDayPrices:   make(map[string]int),
		Stocks:            make(map[string]int),
		Enums:             make(map[string]*Enum),
		Values:            make(map[string]int),
		Badges:            make(map[int]string),
		BadgeRanges:       make(map[int][2]int),
		BadgeTypePrices:   make(map[int]int),
		AgeGroups:         make(map[int]AgeGroup),
		TablePrices:       make(map[int]int),
		DeptHeadChecklist: make(map[string]time.Time),
		DaysOfWeek: map[string]bool{
			"Sunday": true, "Monday": true, "Tuesday": true, "Wednesday": true,
			"Thursday": true, "Friday": true, "Saturday": true,
		},
		secrets: make(map[string]string),
	}

	if err := e.loadAppconf(f.Section("appconf")); err != nil {
		return nil, err
	}
	if err := e.loadDates(f.Section("dates")); err != nil {
		return nil, err
	}
	if err := e.loadBadgePrices(f); err != nil {
		return nil, err
	}
	e.loadEnums(f)
	if err := e.loadIntegerEnums(f); err != nil {
		return nil, err
	}
	if err := e.loadBadgeRanges(f.Section("badge_ranges")); err != nil {
		return nil, err
	}
	e.loadBadgeTypePrices(f.Section("badge_type_prices"))
	e.loadAgeGroups(f)
	e.loadTablePrices(f.Section("table_prices"))
	if err := e.loadDeptHeadChecklist(f.Section("dept_head_checklist")); err != nil {
		return nil, err
	}
	if err := e.loadVolunteerChecklist(f.Section("volunteer_checklist"), logger); err != nil {
		return nil, err
	}
	e.loadDonationTiers(f)
	if err := e.resolveBadgeTypeLists(f.Section("appconf")); err != nil {
		return nil, err
	}

	for _, k := range f.Section("secret").Keys() {
		e.secrets[strings.ToLower(k.Name())] = k.String()
	}

	e.derive()

	logger.Info("event config loaded",
		zap.String("event", e.EventNameAndYear),
		zap.Time("epoch", e.Epoch),
		zap.Time("eschaton", e.Eschaton),
		zap.Int("enums", len(e.Enums)),
	)
	return e, nil
}

func (e *Event) loadAppconf(sec *ini.Section) error {
	e.Name = sec.Key("event_name").String()
	if e.Name == "" {
		return fmt.Errorf("appconf: event_name is required")
	}
	e.Year = sec.Key("year").MustInt(0)

	tz := sec.Key("event_timezone").MustString("UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("appconf: unknown event_timezone %q: %w", tz, err)
	}
	e.Timezone = loc

	e.InitialAttendee = sec.Key("initial_attendee").MustInt(0)
	e.GroupDiscount = sec.Key("group_discount").MustInt(0)
	e.DefaultSingleDay = sec.Key("default_single_day").MustInt(0)
	e.PriceBumpsEnabled = sec.Key("price_bumps_enabled").MustBool(true)
	e.HardcoreOptimizationsEnabled = sec.Key("hardcore_optimizations_enabled").MustBool(false)
	e.MaxBadgeSales = sec.Key("max_badge_sales").MustInt(0)
	e.MaxDealerApps = sec.Key("max_dealer_apps").MustInt(0)
	e.OneDaysEnabled = sec.Key("one_days_enabled").MustBool(false)
	e.PresellOneDays = sec.Key("presell_one_days").MustBool(false)
	e.GroupsEnabled = sec.Key("groups_enabled").MustBool(true)
	e.KioskCCEnabled = sec.Key("kiosk_cc_enabled").MustBool(true)
	e.SetupShiftDays = sec.Key("setup_shift_days").MustInt(0)
	e.MaxTables = sec.Key("max_tables").MustInt(0)
	return nil
}

func (e *Event) loadDates(sec *ini.Section) error {
	for _, k := range sec.Keys() {
		dt, err := ParseDeadline(k.String(), e.Timezone)
		if err != nil {
			return fmt.Errorf("dates: parse %s: %w", k.Name(), err)
		}
		e.Dates[strings.ToUpper(k.Name())] = dt
	}

	e.Epoch = e.Dates["EPOCH"]
	e.Eschaton = e.Dates["ESCHATON"]
	if e.Epoch.IsZero() || e.Eschaton.IsZero() {
		return fmt.Errorf("dates: epoch and eschaton are required")
	}
	if !e.Eschaton.After(e.Epoch) {
		return fmt.Errorf("dates: eschaton must come after epoch")
	}
	return nil
}

func (e *Event) loadBadgePrices(f *ini.File) error {
	for _, k := range f.Section("badge_prices.single_day").Keys() {
		e.SingleDayPrices[k.Name()] = k.MustInt(0)
	}
	for _, k := range f.Section("badge_prices.stocks").Keys() {
		e.Stocks[strings.ToUpper(k.Name())] = k.MustInt(0)
	}

	// Keys in the attendee table are either dates (price bumps) or badge
	// counts (price limits); which is which is decided by parse.
	for _, k := range f.Section("badge_prices.attendee").Keys() {
		price := k.MustInt(0)
		if dt, err := parseBumpDate(k.Name(), e.Timezone); err == nil {
			e.PriceBumps = append(e.PriceBumps, PriceBump{At: dt, Price: price})
			continue
		}
		cap, err := strconv.Atoi(k.Name())
		if err != nil {
			return fmt.Errorf("badge_prices.attendee: %q is neither a date nor a badge count", k.Name())
		}
		e.PriceLimits = append(e.PriceLimits, PriceLimit{Cap: cap, Price: price})
	}

	sort.Slice(e.PriceBumps, func(i, j int) bool { return e.PriceBumps[i].At.Before(e.PriceBumps[j].At) })
	sort.Slice(e.PriceLimits, func(i, j int) bool { return e.PriceLimits[i].Cap < e.PriceLimits[j].Cap })

	e.OrderedPriceLimits = make([]int, 0, len(e.PriceLimits))
	for _, l := range e.PriceLimits {
		e.OrderedPriceLimits = append(e.OrderedPriceLimits, l.Price)
	}
	sort.Ints(e.OrderedPriceLimits)
	return nil
}

func (e *Event) loadEnums(f *ini.File) {
	for _, sec := range f.ChildSections("enums") {
		name := strings.TrimPrefix(sec.Name(), "enums.")
		pairs := sectionPairs(sec)

		// Disabled payment options are removed from the dropdown but still
		// get enum values so code referencing them keeps working.
		if name == "door_payment_method" {
			if !e.KioskCCEnabled {
				pairs = dropKey(pairs, "stripe")
				e.registerValue("stripe")
			}
			if !e.GroupsEnabled {
				pairs = dropKey(pairs, "group")
				e.registerValue("group")
			}
		}

		e.makeEnum(name, pairs, false)
	}
}

func (e *Event) loadIntegerEnums(f *ini.File) error {
	for _, k := range f.Section("integer_enums").Keys() {
		v, err := strconv.Atoi(k.String())
		if err != nil {
			return fmt.Errorf("integer_enums: %s: %w", k.Name(), err)
		}
		e.Values[strings.ToUpper(k.Name())] = v
	}

	for _, sec := range f.ChildSections("integer_enums") {
		name := strings.TrimPrefix(sec.Name(), "integer_enums.")
		pairs := sectionPairs(sec)
		// Values may reference the scalar names above instead of literals.
		for i, pair := range pairs {
			if _, err := strconv.Atoi(pair.value); err == nil {
				continue
			}
			ref, ok := e.Value(pair.value)
			if !ok {
				return fmt.Errorf("integer_enums.%s: unknown reference %q", name, pair.value)
			}
			pairs[i].value = strconv.Itoa(ref)
		}
		e.makeEnum(name, pairs, strings.HasSuffix(name, "_price"))
	}
	return nil
}

func (e *Event) loadBadgeRanges(sec *ini.Section) error {
	for _, k := range sec.Keys() {
		val, ok := e.Value(k.Name())
		if !ok {
			return fmt.Errorf("badge_ranges: unknown badge type %q", k.Name())
		}
		bounds := k.Ints(",")
		if len(bounds) != 2 {
			return fmt.Errorf("badge_ranges: %s must be a start,end pair", k.Name())
		}
		e.BadgeRanges[val] = [2]int{bounds[0], bounds[1]}
	}
	return nil
}

func (e *Event) loadBadgeTypePrices(sec *ini.Section) {
	for _, k := range sec.Keys() {
		// Badge types removed by plugins may still be priced; skip them.
		val, ok := e.Value(k.Name())
		if !ok {
			continue
		}
		e.BadgeTypePrices[val] = k.MustInt(0)
	}
}

func (e *Event) loadAgeGroups(f *ini.File) {
	sections := f.ChildSections("age_groups")
	pairs := make([]kv, 0, len(sections))
	for _, sec := range sections {
		name := strings.TrimPrefix(sec.Name(), "age_groups.")
		pairs = append(pairs, kv{key: name, value: sec.Key("desc").String()})
	}
	e.makeEnum("age_group", pairs, false)

	for _, sec := range sections {
		name := strings.TrimPrefix(sec.Name(), "age_groups.")
		val := e.Values[strings.ToUpper(name)]
		e.AgeGroups[val] = AgeGroup{
			Value:       val,
			Desc:        sec.Key("desc").String(),
			MinAge:      sec.Key("min_age").MustInt(0),
			MaxAge:      sec.Key("max_age").MustInt(0),
			Discount:    sec.Key("discount").MustInt(0),
			ConsentForm: sec.Key("consent_form").MustBool(false),
		}
	}
}

func (e *Event) loadTablePrices(sec *ini.Section) {
	e.DefaultTablePrice = sec.Key("default_price").MustInt(0)
	for _, k := range sec.Keys() {
		if k.Name() == "default_price" {
			continue
		}
		n, err := strconv.Atoi(k.Name())
		if err != nil {
			continue
		}
		e.TablePrices[n] = k.MustInt(0)
	}
}

func (e *Event) loadDeptHeadChecklist(sec *ini.Section) error {
	for _, k := range sec.Keys() {
		dt, err := ParseDeadline(k.String(), e.Timezone)
		if err != nil {
			return fmt.Errorf("dept_head_checklist: parse %s: %w", k.Name(), err)
		}
		e.DeptHeadChecklist[k.Name()] = dt
	}
	return nil
}

func (e *Event) loadVolunteerChecklist(sec *ini.Section, logger *zap.Logger) error {
	type item struct {
		step int
		url  string
	}
	items := make([]item, 0, len(sec.Keys()))
	for _, k := range sec.Keys() {
		if k.String() == "" {
			continue
		}
		step, err := strconv.Atoi(k.Name())
		if err != nil {
			logger.Error("volunteer_checklist config options must have integer option names",
				zap.String("option", k.Name()))
			return fmt.Errorf("volunteer_checklist: option %q is not an integer", k.Name())
		}
		items = append(items, item{step: step, url: k.String()})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].step < items[j].step })
	for _, it := range items {
		e.VolunteerChecklist = append(e.VolunteerChecklist, it.url)
	}
	return nil
}

func (e *Event) loadDonationTiers(f *ini.File) {
	// The donation_tier integer enum maps amounts to tier names; the
	// descriptions sections fill in the perks.
	amounts := make(map[string]int)
	if enum, ok := e.Enums["DONATION_TIER"]; ok {
		for val, desc := range enum.Lookup {
			amounts[desc] = val
		}
	}

	for _, sec := range f.ChildSections("donation_tier_descriptions") {
		name := sec.Key("name").String()
		e.DonationTiers = append(e.DonationTiers, DonationTier{
			Name:        name,
			Price:       amounts[name],
			Description: sec.Key("description").String(),
			Link:        sec.Key("link").String(),
		})
	}
	sort.Slice(e.DonationTiers, func(i, j int) bool { return e.DonationTiers[i].Price < e.DonationTiers[j].Price })

	// Higher tiers include every lower perk, so each tier lists all
	// descriptions up to and including its own. Multiple perks per tier are
	// pipe-separated in the config.
	for i := range e.DonationTiers {
		tier := &e.DonationTiers[i]
		for _, lower := range e.DonationTiers {
			if lower.Price <= 0 && lower.Name != tier.Name {
				continue
			}
			if lower.Price > tier.Price {
				break
			}
			if lower.Price < tier.Price || lower.Name == tier.Name {
				tier.AllDescriptions = append(tier.AllDescriptions, splitDescLinks(lower.Description, lower.Link)...)
			}
		}
	}
}

func splitDescLinks(description, link string) []DescLink {
	descs := strings.Split(description, "|")
	links := strings.Split(link, "|")
	out := make([]DescLink, 0, len(descs))
	for i, d := range descs {
		l := ""
		if i < len(links) {
			l = links[i]
		}
		out = append(out, DescLink{Description: d, Link: l})
	}
	return out
}

// resolveBadgeTypeLists turns the comma-separated badge type names in
// appconf into their enum values. This has to wait until the enums exist.
func (e *Event) resolveBadgeTypeLists(sec *ini.Section) error {
	resolve := func(key string) ([]int, error) {
		var vals []int
		for _, name := range sec.Key(key).Strings(",") {
			if name == "" {
				continue
			}
			val, ok := e.Value(name)
			if !ok {
				return nil, fmt.Errorf("appconf: %s: unknown badge type %q", key, name)
			}
			vals = append(vals, val)
		}
		return vals, nil
	}

	var err error
	if e.PreassignedBadgeTypes, err = resolve("preassigned_badge_types"); err != nil {
		return err
	}
	if e.TransferableBadgeTypes, err = resolve("transferable_badge_types"); err != nil {
		return err
	}
	return nil
}

func (e *Event) derive() {
	e.ConLength = int(e.Eschaton.Sub(e.Epoch).Hours())
	if e.Year > 0 {
		e.EventNameAndYear = fmt.Sprintf("%s %d", e.Name, e.Year)
	} else {
		e.EventNameAndYear = e.Name
	}

	e.ShiftsStartDay = e.Epoch.AddDate(0, 0, -e.SetupShiftDays)
	e.StartTimeOpts = make([]time.Time, 0, e.ConLength)
	for i := 0; i < e.ConLength; i++ {
		e.StartTimeOpts = append(e.StartTimeOpts, e.Epoch.Add(time.Duration(i)*time.Hour))
	}

	if badge, ok := e.Enums["BADGE"]; ok {
		for val, desc := range badge.Lookup {
			e.Badges[val] = desc
		}
	}

	if e.OneDaysEnabled && e.PresellOneDays {
		e.addPresellOneDays()
	}

	for _, bounds := range e.BadgeRanges {
		if bounds[1] > e.MaxBadge {
			e.MaxBadge = bounds[1]
		}
	}
}

// addPresellOneDays creates a badge type per event day, named after the
// weekday, sharing the one-day badge number range.
func (e *Event) addPresellOneDays() {
	badge := e.Enums["BADGE"]
	oneDayVal, hasOneDay := e.Value("one_day_badge")

	for day := e.Epoch; !day.After(e.Eschaton); day = day.AddDate(0, 0, 1) {
		name := day.Weekday().String()
		val := e.registerValue(name)
		e.Badges[val] = name
		if badge != nil {
			badge.Opts = append(badge.Opts, Opt{Value: val, Desc: name})
			badge.Vars = append(badge.Vars, strings.ToUpper(name))
			badge.Lookup[val] = name
		}
		if hasOneDay {
			e.BadgeRanges[val] = e.BadgeRanges[oneDayVal]
		}
		e.TransferableBadgeTypes = append(e.TransferableBadgeTypes, val)
	}
}

func sectionPairs(sec *ini.Section) []kv {
	keys := sec.Keys()
	pairs := make([]kv, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, kv{key: k.Name(), value: k.String()})
	}
	return pairs
}

func dropKey(pairs []kv, key string) []kv {
	out := pairs[:0]
	for _, p := range pairs {
		if !strings.EqualFold(p.key, key) {
			out = append(out, p)
		}
	}
	return out
}
