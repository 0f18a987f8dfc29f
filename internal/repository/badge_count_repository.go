package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// BadgeStatusValues carries the enum values the count queries filter on.
// They come from the event config at startup, not from constants, because
// the values are hash-derived per name.
type BadgeStatusValues struct {
	Completed   int
	HasPaid     int
	Refunded    int
	PaidByGroup int
	Unapproved  int
}

// BadgeCountRepository answers the registration count queries the derived
// event settings depend on. It satisfies eventconfig.CountSource.
type BadgeCountRepository struct {
	db     *sqlx.DB
	status BadgeStatusValues
}

func NewBadgeCountRepository(db *sqlx.DB, status BadgeStatusValues) *BadgeCountRepository {
	return &BadgeCountRepository{db: db, status: status}
}

// BadgesSold counts completed paid badges plus badges paid for through a
// group that has itself paid.
func (r *BadgeCountRepository) BadgesSold(ctx context.Context) (int, error) {
	var individual int
	err := r.db.GetContext(ctx, &individual,
		`SELECT COUNT(*) FROM attendees
		 WHERE paid IN ($1, $2) AND badge_status = $3`,
		r.status.HasPaid, r.status.Refunded, r.status.Completed)
	if err != nil {
		return 0, fmt.Errorf("count individual badges: %w", err)
	}

	var grouped int
	err = r.db.GetContext(ctx, &grouped,
		`SELECT COUNT(*) FROM attendees a
		 JOIN groups g ON g.id = a.group_id
		 WHERE a.paid = $1 AND g.amount_paid > 0`,
		r.status.PaidByGroup)
	if err != nil {
		return 0, fmt.Errorf("count group badges: %w", err)
	}
	return individual + grouped, nil
}

// BadgeCountByType counts completed badges of the given type across all
// paid values, so types that are never sold (staff, comped) still count.
func (r *BadgeCountRepository) BadgeCountByType(ctx context.Context, badgeType int) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM attendees
		 WHERE badge_type = $1 AND badge_status = $2`,
		badgeType, r.status.Completed)
	if err != nil {
		return 0, fmt.Errorf("count badges by type: %w", err)
	}
	return n, nil
}

// KickinCount counts attendees whose donation meets the given level: paid
// individuals, plus group-paid attendees who covered the donation themselves.
func (r *BadgeCountRepository) KickinCount(ctx context.Context, level int) (int, error) {
	var individual int
	err := r.db.GetContext(ctx, &individual,
		`SELECT COUNT(*) FROM attendees
		 WHERE amount_extra >= $1 AND paid IN ($2, $3)`,
		level, r.status.HasPaid, r.status.Refunded)
	if err != nil {
		return 0, fmt.Errorf("count individual kickins: %w", err)
	}

	var grouped int
	err = r.db.GetContext(ctx, &grouped,
		`SELECT COUNT(*) FROM attendees
		 WHERE paid = $1 AND amount_extra >= $2 AND amount_paid >= $2`,
		r.status.PaidByGroup, level)
	if err != nil {
		return 0, fmt.Errorf("count group kickins: %w", err)
	}
	return individual + grouped, nil
}

// DealerApps counts pending dealer applications. Waitlisted and declined
// groups do not hold a slot.
func (r *BadgeCountRepository) DealerApps(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM groups
		 WHERE tables > 0 AND cost > 0 AND status = $1`,
		r.status.Unapproved)
	if err != nil {
		return 0, fmt.Errorf("count dealer apps: %w", err)
	}
	return n, nil
}
