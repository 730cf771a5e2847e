package portal

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "bookings.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, Record{
		SalonID:   97,
		Name:      "Anna Svensson",
		Email:     "anna@gmail.com",
		Phone:     "+46731234567",
		ServiceID: 301,
		Treatment: "Klippning kort hår",
		Date:      "2026-09-04",
		Time:      "14:30",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("ID not assigned")
	}
	if rec.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed", rec.Status)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Anna Svensson" || got.Treatment != "Klippning kort hår" {
		t.Errorf("got = %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), 424242); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreCancelAndRescheduleLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, Record{SalonID: 1, Name: "Erik Lund", Date: "2026-09-10", Time: "10:00"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	moved, err := s.Reschedule(ctx, rec.ID, "2026-09-11", "11:00")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.Date != "2026-09-11" || moved.Time != "11:00" || moved.Status != StatusRescheduled {
		t.Errorf("moved = %+v", moved)
	}

	cancelled, err := s.Cancel(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}

	// A cancelled booking cannot be cancelled or rescheduled again.
	if _, err := s.Cancel(ctx, rec.ID); err != ErrNotFound {
		t.Fatalf("second cancel err = %v, want ErrNotFound", err)
	}
	if _, err := s.Reschedule(ctx, rec.ID, "2026-09-12", "09:00"); err != ErrNotFound {
		t.Fatalf("reschedule after cancel err = %v, want ErrNotFound", err)
	}
}

func TestStoreBookedTimesExcludesCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.Insert(ctx, Record{SalonID: 97, Name: "A", Date: "2026-09-04", Time: "09:00"})
	s.Insert(ctx, Record{SalonID: 97, Name: "B", Date: "2026-09-04", Time: "10:00"})
	s.Insert(ctx, Record{SalonID: 97, Name: "C", Date: "2026-09-05", Time: "09:00"})
	if _, err := s.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	taken, err := s.BookedTimes(ctx, 97, "2026-09-04")
	if err != nil {
		t.Fatalf("BookedTimes: %v", err)
	}
	if taken["09:00"] {
		t.Error("cancelled booking still blocks 09:00")
	}
	if !taken["10:00"] {
		t.Error("10:00 should be taken")
	}
	if len(taken) != 1 {
		t.Errorf("taken = %v", taken)
	}
}

func TestStoreListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Insert(ctx, Record{SalonID: 97, Name: "Anna", Email: "anna@gmail.com", Date: "2026-09-04", Time: "09:00"})
	s.Insert(ctx, Record{SalonID: 97, Name: "Erik", Phone: "+46701111111", Date: "2026-09-04", Time: "10:00"})
	s.Insert(ctx, Record{SalonID: 12, Name: "Maja", Date: "2026-09-04", Time: "11:00"})

	all, err := s.List(ctx, 0, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d rows, want 3", len(all))
	}
	// Newest first.
	if all[0].Name != "Maja" {
		t.Errorf("first row = %q, want Maja", all[0].Name)
	}

	salon, _ := s.List(ctx, 97, "")
	if len(salon) != 2 {
		t.Errorf("salon 97 rows = %d, want 2", len(salon))
	}

	byPhone, _ := s.List(ctx, 0, "+46701111111")
	if len(byPhone) != 1 || byPhone[0].Name != "Erik" {
		t.Errorf("byPhone = %+v", byPhone)
	}
}

func TestSlotTimeIDRoundTrip(t *testing.T) {
	for _, hhmm := range []string{"09:00", "14:30", "16:00"} {
		id := SlotTimeID(301, hhmm)
		if got := TimeFromSlotID(id); got != hhmm {
			t.Errorf("TimeFromSlotID(SlotTimeID(301, %q)) = %q", hhmm, got)
		}
	}
}
