package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStatus = BadgeStatusValues{
	Completed:   10,
	HasPaid:     20,
	Refunded:    21,
	PaidByGroup: 22,
	Unapproved:  30,
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestBadgesSoldSumsIndividualAndGroupBadges(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBadgeCountRepository(db, testStatus)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attendees
		 WHERE paid IN ($1, $2) AND badge_status = $3`)).
		WithArgs(testStatus.HasPaid, testStatus.Refunded, testStatus.Completed).
		WillReturnRows(countRow(150))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attendees a
		 JOIN groups g ON g.id = a.group_id
		 WHERE a.paid = $1 AND g.amount_paid > 0`)).
		WithArgs(testStatus.PaidByGroup).
		WillReturnRows(countRow(40))

	n, err := repo.BadgesSold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 190, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeCountByTypeFiltersOnStatusNotPaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBadgeCountRepository(db, testStatus)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attendees
		 WHERE badge_type = $1 AND badge_status = $2`)).
		WithArgs(777, testStatus.Completed).
		WillReturnRows(countRow(12))

	n, err := repo.BadgeCountByType(context.Background(), 777)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKickinCountSumsIndividualAndGroupSupporters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBadgeCountRepository(db, testStatus)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attendees
		 WHERE amount_extra >= $1 AND paid IN ($2, $3)`)).
		WithArgs(60, testStatus.HasPaid, testStatus.Refunded).
		WillReturnRows(countRow(9))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attendees
		 WHERE paid = $1 AND amount_extra >= $2 AND amount_paid >= $2`)).
		WithArgs(testStatus.PaidByGroup, 60).
		WillReturnRows(countRow(4))

	n, err := repo.KickinCount(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealerApps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBadgeCountRepository(db, testStatus)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM groups
		 WHERE tables > 0 AND cost > 0 AND status = $1`)).
		WithArgs(testStatus.Unapproved).
		WillReturnRows(countRow(7))

	n, err := repo.DealerApps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
