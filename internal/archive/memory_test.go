package archive

import (
	"context"
	"slices"
	"testing"
	"time"

	"tsm-go/internal/tsm"
)

func testID(tier tsm.Tier, day int) tsm.ArchiveID {
	return tsm.DeriveID("foo", tier, tsm.NewDate(2012, time.March, day))
}

func TestMemoryStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ids := []tsm.ArchiveID{
		testID(tsm.TierWeekly, 2),
		testID(tsm.TierDaily, 24),
		testID(tsm.TierDaily, 23),
	}
	for _, id := range ids {
		if err := s.Create(ctx, id, []string{"/home", "/etc"}); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"foo_daily_2012-03-23", "foo_daily_2012-03-24", "foo_weekly_2012-03-02"}
	if !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	paths, ok := s.Paths(ids[0])
	if !ok || !slices.Equal(paths, []string{"/home", "/etc"}) {
		t.Errorf("Paths() = %v, %v", paths, ok)
	}
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := testID(tsm.TierDaily, 24)

	if err := s.Create(ctx, id, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Create(ctx, id, nil); err == nil {
		t.Error("second Create() with same name expected error")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := testID(tsm.TierDaily, 24)

	if err := s.Delete(ctx, id); err != nil {
		t.Errorf("Delete() of missing archive error = %v, want nil", err)
	}

	if err := s.Create(ctx, id, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Has(id) {
		t.Error("archive still present after Delete()")
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	if err := s.Create(ctx, testID(tsm.TierDaily, 24), nil); err == nil {
		t.Error("Create() with cancelled context expected error")
	}
}
