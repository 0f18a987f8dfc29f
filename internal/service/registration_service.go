package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/eventconfig"
)

// RegistrationService assembles the public registration info from a
// per-request event snapshot.
type RegistrationService struct {
	logger *zap.Logger
}

func NewRegistrationService(logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{logger: logger}
}

func (s *RegistrationService) Info(ctx context.Context, snap *eventconfig.Snapshot) (*dto.RegistrationInfo, error) {
	price, err := snap.AttendeePrice(ctx)
	if err != nil {
		return nil, err
	}
	group, err := snap.GroupPrice(ctx)
	if err != nil {
		return nil, err
	}
	left, err := snap.BadgesLeftAtCurrentPrice(ctx)
	if err != nil {
		return nil, err
	}
	remaining, err := snap.RemainingBadges(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.preregOpen(ctx, snap)
	if err != nil {
		return nil, err
	}
	doorOpts, err := s.doorOpts(ctx, snap, price)
	if err != nil {
		return nil, err
	}
	tiers, err := s.visibleDonationTiers(ctx, snap)
	if err != nil {
		return nil, err
	}

	return &dto.RegistrationInfo{
		EventName:                snap.Event.EventNameAndYear,
		PreregOpen:               open,
		BadgePrice:               price,
		GroupPrice:               group,
		OnedayPrice:              snap.Event.OnedayPriceAt(snap.Now()),
		BadgesLeftAtCurrentPrice: left,
		RemainingBadges:          remaining,
		AtTheDoorOpts:            doorOpts,
		DonationTiers:            tiers,
	}, nil
}

// preregOpen checks the configured window. Deadlines left out of the config
// simply do not constrain the window.
func (s *RegistrationService) preregOpen(ctx context.Context, snap *eventconfig.Snapshot) (bool, error) {
	open := true
	afterOpen, err := snap.ResolveBool(ctx, "AFTER_PREREG_OPEN")
	switch {
	case err == nil:
		open = afterOpen
	case !isUnknownSetting(err):
		return false, err
	}
	if !open {
		return false, nil
	}

	beforeTakedown, err := snap.ResolveBool(ctx, "BEFORE_PREREG_TAKEDOWN")
	switch {
	case err == nil:
		open = beforeTakedown
	case !isUnknownSetting(err):
		return false, err
	}
	// Registration always closes when the event ends.
	if !snap.Now().Before(snap.Event.Eschaton) {
		return false, nil
	}
	return open, nil
}

func (s *RegistrationService) doorOpts(ctx context.Context, snap *eventconfig.Snapshot, attendeePrice int) ([]dto.BadgeOpt, error) {
	opts, err := snap.AtTheDoorBadgeOpts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BadgeOpt, 0, len(opts))
	for _, o := range opts {
		out = append(out, dto.BadgeOpt{
			Value: o.Value,
			Desc:  o.Desc,
			Price: s.badgePrice(snap, o.Value, attendeePrice),
		})
	}
	return out, nil
}

func (s *RegistrationService) badgePrice(snap *eventconfig.Snapshot, badgeType, attendeePrice int) int {
	e := snap.Event
	if p, ok := e.BadgeTypePrices[badgeType]; ok {
		return p
	}
	if name, ok := e.Badges[badgeType]; ok && e.DaysOfWeek[name] {
		return e.PresoldOnedayPrice(badgeType)
	}
	if val, ok := e.Value("one_day_badge"); ok && val == badgeType {
		return e.OnedayPriceAt(snap.Now())
	}
	return attendeePrice
}

// visibleDonationTiers hides tiers whose physical stock has run out: once
// shirts (or the supporter package) are gone, tiers at or above that level
// drop off prereg.
func (s *RegistrationService) visibleDonationTiers(ctx context.Context, snap *eventconfig.Snapshot) ([]eventconfig.DonationTier, error) {
	e := snap.Event
	cutoff := -1

	if level, ok := e.Value("supporter_level"); ok {
		avail, err := snap.ResolveBool(ctx, "SUPPORTER_AVAILABLE")
		if err != nil {
			return nil, err
		}
		if !avail {
			cutoff = level
		}
	}
	if level, ok := e.Value("shirt_level"); ok {
		avail, err := snap.ResolveBool(ctx, "SHIRT_AVAILABLE")
		if err != nil {
			return nil, err
		}
		if !avail && (cutoff == -1 || level < cutoff) {
			cutoff = level
		}
	}

	if cutoff == -1 {
		return e.DonationTiers, nil
	}
	visible := make([]eventconfig.DonationTier, 0, len(e.DonationTiers))
	for _, tier := range e.DonationTiers {
		if tier.Price < cutoff {
			visible = append(visible, tier)
		}
	}
	return visible, nil
}

func isUnknownSetting(err error) bool {
	var unknown *eventconfig.UnknownSettingError
	return errors.As(err, &unknown)
}
