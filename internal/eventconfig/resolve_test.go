package eventconfig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDeadlines(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSnapshot(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), &fakeCounts{})

	before, err := s.ResolveBool(ctx, "BEFORE_PREREG_OPEN")
	require.NoError(t, err)
	assert.True(t, before)

	after, err := s.ResolveBool(ctx, "AFTER_PREREG_OPEN")
	require.NoError(t, err)
	assert.False(t, after)

	// Empty deadlines are false on both sides.
	for _, name := range []string{"BEFORE_PLACEHOLDER_DEADLINE", "AFTER_PLACEHOLDER_DEADLINE"} {
		v, err := s.ResolveBool(ctx, name)
		require.NoError(t, err, name)
		assert.False(t, v, name)
	}

	// A deadline that was never configured falls through the whole chain.
	_, err = s.Resolve(ctx, "BEFORE_NO_SUCH_DEADLINE")
	var unknown *UnknownSettingError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "BEFORE_NO_SUCH_DEADLINE", unknown.Name)
}

func TestResolveAccess(t *testing.T) {
	ctx := context.Background()
	e := loadTestEvent(t)
	regVal, _ := e.Value("registration")
	access := &fakeAccess{set: map[int]struct{}{regVal: {}}}
	s := NewSnapshot(e, time.Now(), "acct-1", &fakeCounts{}, access, nil)

	has, err := s.ResolveBool(ctx, "HAS_REGISTRATION_ACCESS")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.ResolveBool(ctx, "HAS_ADMIN_ACCESS")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.Resolve(ctx, "HAS_BOGUS_ACCESS")
	var unknown *UnknownSettingError
	assert.ErrorAs(t, err, &unknown)
}

func TestResolveCounts(t *testing.T) {
	ctx := context.Background()
	e := loadTestEvent(t)
	staff, _ := e.Value("staff_badge")
	supporterLevel, _ := e.Value("supporter_level")
	counts := &fakeCounts{
		byType: map[int]int{staff: 12},
		kickin: map[int]int{supporterLevel: 7},
	}
	s := NewSnapshot(e, time.Now(), "", counts, nil, nil)

	n, err := s.Resolve(ctx, "STAFF_BADGE_COUNT")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = s.Resolve(ctx, "SUPPORTER_COUNT")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	// Counting something that names no badge type is nil, not an error.
	n, err = s.Resolve(ctx, "MOON_ROCK_COUNT")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestResolveAvailability(t *testing.T) {
	ctx := context.Background()
	e := loadTestEvent(t)
	attendee, _ := e.Value("attendee_badge")

	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{"under stock", 499, true},
		{"at stock", 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := &fakeCounts{byType: map[int]int{attendee: tt.count}}
			s := NewSnapshot(e, time.Now(), "", counts, nil, nil)
			avail, err := s.ResolveBool(ctx, "ATTENDEE_BADGE_AVAILABLE")
			require.NoError(t, err)
			assert.Equal(t, tt.want, avail)
		})
	}

	// No configured stock means always available.
	s := NewSnapshot(e, time.Now(), "", &fakeCounts{}, nil, nil)
	avail, err := s.ResolveBool(ctx, "STAFF_BADGE_AVAILABLE")
	require.NoError(t, err)
	assert.True(t, avail)

	// A stock whose item has no countable badge type is never available.
	avail, err = s.ResolveBool(ctx, "MYSTERY_BOX_AVAILABLE")
	require.NoError(t, err)
	assert.False(t, avail)
}

func TestResolveSecretsAndUnknown(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSnapshot(t, time.Now(), &fakeCounts{})

	v, err := s.Resolve(ctx, "block_buster_keys")
	require.NoError(t, err)
	assert.Equal(t, "5678", v)

	_, err = s.Resolve(ctx, "TOTALLY_MADE_UP")
	var unknown *UnknownSettingError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Error(), "TOTALLY_MADE_UP")
}
