package eventconfig

import (
	"context"
	"fmt"
	"strings"
)

// UnknownSettingError is returned when a dynamic setting name matches none
// of the resolution rules.
type UnknownSettingError struct {
	Name string
}

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("no such event setting %q", e.Name)
}

// resolver inspects a setting name and either handles it or passes. The
// handled flag distinguishes "resolved to nil" from "not mine".
type resolver func(ctx context.Context, s *Snapshot, name string) (any, bool, error)

// Resolution order matters: BEFORE_EPOCH is a deadline check, not a lookup
// of an "EPOCH" stock or secret.
var resolvers = []resolver{
	resolveDeadline,
	resolveAccess,
	resolveCount,
	resolveAvailability,
	resolveSecret,
}

// Resolve evaluates a dynamic setting name against the snapshot. Supported
// shapes are BEFORE_X / AFTER_X for deadlines, HAS_X_ACCESS for the current
// account's access set, X_COUNT for badge counts, X_AVAILABLE for stock
// checks, and bare secret names. Anything else is an UnknownSettingError.
func (s *Snapshot) Resolve(ctx context.Context, name string) (any, error) {
	name = strings.ToUpper(name)
	for _, r := range resolvers {
		v, handled, err := r(ctx, s, name)
		if err != nil {
			return nil, err
		}
		if handled {
			return v, nil
		}
	}
	return nil, &UnknownSettingError{Name: name}
}

// ResolveBool is a convenience for the flag-shaped settings. Non-boolean
// results and unknown names come back as errors.
func (s *Snapshot) ResolveBool(ctx context.Context, name string) (bool, error) {
	v, err := s.Resolve(ctx, name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("event setting %q is not a flag", name)
	}
	return b, nil
}

func resolveDeadline(_ context.Context, s *Snapshot, name string) (any, bool, error) {
	before := strings.HasPrefix(name, "BEFORE_")
	after := strings.HasPrefix(name, "AFTER_")
	if !before && !after {
		return nil, false, nil
	}
	dateName := strings.TrimPrefix(strings.TrimPrefix(name, "BEFORE_"), "AFTER_")
	dt, ok := s.Event.Date(dateName)
	if !ok {
		return nil, false, nil
	}
	// A deadline configured empty never triggers in either direction.
	if dt.IsZero() {
		return false, true, nil
	}
	if before {
		return s.now.Before(dt), true, nil
	}
	return s.now.After(dt), true, nil
}

func resolveAccess(ctx context.Context, s *Snapshot, name string) (any, bool, error) {
	if !strings.HasPrefix(name, "HAS_") || !strings.HasSuffix(name, "_ACCESS") {
		return nil, false, nil
	}
	section := strings.TrimSuffix(strings.TrimPrefix(name, "HAS_"), "_ACCESS")
	val, ok := s.Event.Value(section)
	if !ok {
		return nil, false, nil
	}
	has, err := s.HasAccess(ctx, val)
	if err != nil {
		return nil, false, err
	}
	return has, true, nil
}

func resolveCount(ctx context.Context, s *Snapshot, name string) (any, bool, error) {
	if !strings.HasSuffix(name, "_COUNT") {
		return nil, false, nil
	}
	item := strings.TrimSuffix(name, "_COUNT")
	switch item {
	case "SUPPORTER":
		n, err := s.SupporterCount(ctx)
		return n, true, err
	case "SHIRT":
		n, err := s.ShirtCount(ctx)
		return n, true, err
	}
	val, ok := s.Event.Value(item)
	if !ok {
		// A count of something that isn't a badge type resolves to nil
		// rather than falling through to the remaining rules.
		return nil, true, nil
	}
	n, err := s.BadgeCountByType(ctx, val)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

func resolveAvailability(ctx context.Context, s *Snapshot, name string) (any, bool, error) {
	if !strings.HasSuffix(name, "_AVAILABLE") {
		return nil, false, nil
	}
	item := strings.TrimSuffix(name, "_AVAILABLE")
	avail, err := s.available(ctx, item)
	if err != nil {
		return nil, false, err
	}
	return avail, true, nil
}

func resolveSecret(_ context.Context, s *Snapshot, name string) (any, bool, error) {
	v, ok := s.Event.Secret(name)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}
