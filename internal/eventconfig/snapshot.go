package eventconfig

import (
	"context"
	"strings"
	"time"
)

// CountSource supplies the registration counts the derived settings depend
// on. The database-backed implementation lives in the repository layer.
type CountSource interface {
	BadgesSold(ctx context.Context) (int, error)
	BadgeCountByType(ctx context.Context, badgeType int) (int, error)
	KickinCount(ctx context.Context, level int) (int, error)
	DealerApps(ctx context.Context) (int, error)
}

// AccessSource resolves an admin account's set of access section values.
type AccessSource interface {
	AccessSet(ctx context.Context, accountID string) (map[int]struct{}, error)
}

// DeptOpt is a department presented as a dropdown option.
type DeptOpt struct {
	ID          string
	Name        string
	Description string
}

// DepartmentSource lists departments for dropdowns.
type DepartmentSource interface {
	Options(ctx context.Context) ([]DeptOpt, error)
}

// Snapshot is a per-request view over the event config. Database-derived
// values are fetched at most once per snapshot, so every read within a
// request sees the same numbers even while other requests mutate the
// underlying tables.
type Snapshot struct {
	Event     *Event
	now       time.Time
	accountID string

	counts CountSource
	access AccessSource
	depts  DepartmentSource

	badgesSold     *int
	dealerApps     *int
	supporterCount *int
	shirtCount     *int
	typeCounts     map[int]int
	accessSet      map[int]struct{}
	deptOpts       []DeptOpt
	deptsLoaded    bool
}

// NewSnapshot pins a snapshot to a moment and, optionally, to the admin
// account the request authenticated as.
func NewSnapshot(e *Event, now time.Time, accountID string, counts CountSource, access AccessSource, depts DepartmentSource) *Snapshot {
	return &Snapshot{
		Event:      e,
		now:        now.In(e.Timezone),
		accountID:  accountID,
		counts:     counts,
		access:     access,
		depts:      depts,
		typeCounts: make(map[int]int),
	}
}

func (s *Snapshot) Now() time.Time { return s.now }

func (s *Snapshot) BadgesSold(ctx context.Context) (int, error) {
	if s.badgesSold != nil {
		return *s.badgesSold, nil
	}
	n, err := s.counts.BadgesSold(ctx)
	if err != nil {
		return 0, err
	}
	s.badgesSold = &n
	return n, nil
}

func (s *Snapshot) BadgeCountByType(ctx context.Context, badgeType int) (int, error) {
	if n, ok := s.typeCounts[badgeType]; ok {
		return n, nil
	}
	n, err := s.counts.BadgeCountByType(ctx, badgeType)
	if err != nil {
		return 0, err
	}
	s.typeCounts[badgeType] = n
	return n, nil
}

func (s *Snapshot) DealerApps(ctx context.Context) (int, error) {
	if s.dealerApps != nil {
		return *s.dealerApps, nil
	}
	n, err := s.counts.DealerApps(ctx)
	if err != nil {
		return 0, err
	}
	s.dealerApps = &n
	return n, nil
}

func (s *Snapshot) SupporterCount(ctx context.Context) (int, error) {
	if s.supporterCount != nil {
		return *s.supporterCount, nil
	}
	level, ok := s.Event.Value("supporter_level")
	if !ok {
		zero := 0
		s.supporterCount = &zero
		return 0, nil
	}
	n, err := s.counts.KickinCount(ctx, level)
	if err != nil {
		return 0, err
	}
	s.supporterCount = &n
	return n, nil
}

func (s *Snapshot) ShirtCount(ctx context.Context) (int, error) {
	if s.shirtCount != nil {
		return *s.shirtCount, nil
	}
	level, ok := s.Event.Value("shirt_level")
	if !ok {
		zero := 0
		s.shirtCount = &zero
		return 0, nil
	}
	n, err := s.counts.KickinCount(ctx, level)
	if err != nil {
		return 0, err
	}
	s.shirtCount = &n
	return n, nil
}

// AccessSet returns the authenticated account's admin access sections,
// empty when the request is anonymous.
func (s *Snapshot) AccessSet(ctx context.Context) (map[int]struct{}, error) {
	if s.accessSet != nil {
		return s.accessSet, nil
	}
	if s.accountID == "" || s.access == nil {
		s.accessSet = map[int]struct{}{}
		return s.accessSet, nil
	}
	set, err := s.access.AccessSet(ctx, s.accountID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = map[int]struct{}{}
	}
	s.accessSet = set
	return set, nil
}

func (s *Snapshot) HasAccess(ctx context.Context, section int) (bool, error) {
	set, err := s.AccessSet(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[section]
	return ok, nil
}

func (s *Snapshot) DepartmentOpts(ctx context.Context) ([]DeptOpt, error) {
	if s.deptsLoaded {
		return s.deptOpts, nil
	}
	if s.depts == nil {
		s.deptsLoaded = true
		return nil, nil
	}
	opts, err := s.depts.Options(ctx)
	if err != nil {
		return nil, err
	}
	s.deptOpts = opts
	s.deptsLoaded = true
	return opts, nil
}

// AttendeePrice layers the count-based price limits on top of the
// date-based price. Limits only ever raise the price, are skipped once the
// event starts, and are disabled along with bumps or when hardcore
// optimizations are on (the count query is too hot at that point).
func (s *Snapshot) AttendeePrice(ctx context.Context) (int, error) {
	price := s.Event.AttendeePriceAt(s.now)
	if !s.Event.PriceBumpsEnabled || s.Event.HardcoreOptimizationsEnabled || !s.now.Before(s.Event.Epoch) {
		return price, nil
	}
	if len(s.Event.PriceLimits) == 0 {
		return price, nil
	}
	sold, err := s.BadgesSold(ctx)
	if err != nil {
		return 0, err
	}
	for _, l := range s.Event.PriceLimits {
		if sold >= l.Cap && l.Price > price {
			price = l.Price
		}
	}
	return price, nil
}

func (s *Snapshot) GroupPrice(ctx context.Context) (int, error) {
	price, err := s.AttendeePrice(ctx)
	if err != nil {
		return 0, err
	}
	return price - s.Event.GroupDiscount, nil
}

// BadgesLeftAtCurrentPrice reports how many more badges sell before the
// next price limit kicks in. -1 means no cap applies.
func (s *Snapshot) BadgesLeftAtCurrentPrice(ctx context.Context) (int, error) {
	price, err := s.AttendeePrice(ctx)
	if err != nil {
		return 0, err
	}

	atLastTier := len(s.Event.OrderedPriceLimits) == 0 ||
		price >= s.Event.OrderedPriceLimits[len(s.Event.OrderedPriceLimits)-1]
	if atLastTier {
		if s.Event.MaxBadgeSales > 0 {
			sold, err := s.BadgesSold(ctx)
			if err != nil {
				return 0, err
			}
			return max(0, s.Event.MaxBadgeSales-sold), nil
		}
		return -1, nil
	}

	sold, err := s.BadgesSold(ctx)
	if err != nil {
		return 0, err
	}
	for _, l := range s.Event.PriceLimits {
		if l.Price > price {
			return max(0, l.Cap-sold), nil
		}
	}
	return -1, nil
}

func (s *Snapshot) RemainingBadges(ctx context.Context) (int, error) {
	if s.Event.MaxBadgeSales <= 0 {
		return -1, nil
	}
	sold, err := s.BadgesSold(ctx)
	if err != nil {
		return 0, err
	}
	return max(0, s.Event.MaxBadgeSales-sold), nil
}

// available implements the stock check behind FOO_AVAILABLE settings: no
// configured stock means unlimited, and a sold-out type stays visible right
// up to the limit.
func (s *Snapshot) available(ctx context.Context, name string) (bool, error) {
	stock, ok := s.Event.Stock(name)
	if !ok {
		return true, nil
	}

	var count int
	var err error
	switch strings.ToUpper(name) {
	case "SUPPORTER", "SUPPORTER_LEVEL":
		count, err = s.SupporterCount(ctx)
	case "SHIRT", "SHIRT_LEVEL":
		count, err = s.ShirtCount(ctx)
	default:
		val, ok := s.Event.Value(name)
		if !ok {
			return false, nil
		}
		count, err = s.BadgeCountByType(ctx, val)
	}
	if err != nil {
		return false, err
	}
	return count < stock, nil
}

// AtTheDoorBadgeOpts lists the badge types sellable at the door right now:
// the attendee badge while stock lasts, any specially priced types, and the
// one-day badges when those are enabled.
func (s *Snapshot) AtTheDoorBadgeOpts(ctx context.Context) ([]Opt, error) {
	var opts []Opt

	if val, ok := s.Event.Value("attendee_badge"); ok {
		avail, err := s.available(ctx, "ATTENDEE_BADGE")
		if err != nil {
			return nil, err
		}
		if avail {
			opts = append(opts, Opt{Value: val, Desc: s.Event.BadgeDesc(val)})
		}
	}

	for val := range s.Event.BadgeTypePrices {
		opts = append(opts, Opt{Value: val, Desc: s.Event.BadgeDesc(val)})
	}

	if s.Event.OneDaysEnabled {
		dayOpts, err := s.oneDayOpts(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dayOpts...)
	}
	return opts, nil
}

func (s *Snapshot) oneDayOpts(ctx context.Context) ([]Opt, error) {
	if !s.Event.PresellOneDays {
		if val, ok := s.Event.Value("one_day_badge"); ok {
			return []Opt{{Value: val, Desc: s.Event.BadgeDesc(val)}}, nil
		}
		return nil, nil
	}

	var opts []Opt
	for day := s.Event.Epoch; !day.After(s.Event.Eschaton); day = day.AddDate(0, 0, 1) {
		name := day.Weekday().String()
		val, ok := s.Event.Value(name)
		if !ok {
			continue
		}
		avail, err := s.available(ctx, name)
		if err != nil {
			return nil, err
		}
		if avail {
			opts = append(opts, Opt{Value: val, Desc: name})
		}
	}
	return opts, nil
}

// DealerRegOpen reports whether dealer applications are currently accepted
// based on the configured window.
func (s *Snapshot) DealerRegOpen() bool {
	start, startOK := s.Event.Date("dealer_reg_start")
	shutdown, shutOK := s.Event.Date("dealer_reg_shutdown")
	// Window edges configured empty behave like empty deadlines and
	// never trigger, so the window cannot be open.
	if startOK && (start.IsZero() || s.now.Before(start)) {
		return false
	}
	if shutOK && (shutdown.IsZero() || !s.now.Before(shutdown)) {
		return false
	}
	return startOK || shutOK
}

// DealerRegSoftClosed reports whether the application cap has been hit;
// applications past the cap go straight to the waitlist.
func (s *Snapshot) DealerRegSoftClosed(ctx context.Context) (bool, error) {
	if s.Event.MaxDealerApps <= 0 {
		return false, nil
	}
	apps, err := s.DealerApps(ctx)
	if err != nil {
		return false, err
	}
	return apps >= s.Event.MaxDealerApps, nil
}
