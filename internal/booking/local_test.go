package booking

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nordicvoice/voicebooking/internal/portal"
)

func newLocalAdapter(t *testing.T) *LocalAdapter {
	t.Helper()
	store, err := portal.NewStore(filepath.Join(t.TempDir(), "bookings.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLocalAdapter(store, testCatalog)
}

func TestLocalAdapterBookAndCancel(t *testing.T) {
	a := newLocalAdapter(t)
	ctx := context.Background()

	b, err := a.CreateBooking(ctx, CreateRequest{
		SalonID:     97,
		Customer:    Customer{Name: "Anna Svensson", Email: "anna@gmail.com", Phone: "+46731234567"},
		ServiceID:   301,
		ServiceName: "Klippning kort hår",
		Date:        "2026-09-04",
		Time:        "14:00",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("booking ID not assigned")
	}

	// The booked hour drops out of availability.
	slots, err := a.CheckAvailability(ctx, 97, 301, "2026-09-04")
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	for _, s := range slots {
		if s.Start == "2026-09-04T14:00:00" {
			t.Error("booked slot still offered")
		}
	}

	// Double booking the same hour is rejected.
	if _, err := a.CreateBooking(ctx, CreateRequest{
		SalonID: 97, Customer: Customer{Name: "Erik Lund"}, ServiceID: 301,
		Date: "2026-09-04", Time: "14:00",
	}); err != ErrTimeNotAvailable {
		t.Fatalf("double booking err = %v, want ErrTimeNotAvailable", err)
	}

	got, err := a.CancelBooking(ctx, 97, b.ID)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("cancelled ID = %d, want %d", got.ID, b.ID)
	}
	if _, err := a.CancelBooking(ctx, 97, b.ID); err != ErrNotFound {
		t.Fatalf("second cancel err = %v, want ErrNotFound", err)
	}
}

func TestLocalAdapterCreateBySlotID(t *testing.T) {
	a := newLocalAdapter(t)
	ctx := context.Background()

	slots, err := a.CheckAvailability(ctx, 97, 298, "2026-09-05")
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	b, err := a.CreateBooking(ctx, CreateRequest{
		SalonID:   97,
		Customer:  Customer{Name: "Anna Svensson"},
		ServiceID: 298,
		TimeID:    slots[0].TimeID,
		Date:      "2026-09-05",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.Time != "09:00" {
		t.Errorf("time = %q, want 09:00 resolved from slot token", b.Time)
	}
}

func TestLocalAdapterGetBookingsByContact(t *testing.T) {
	a := newLocalAdapter(t)
	ctx := context.Background()

	_, err := a.CreateBooking(ctx, CreateRequest{
		SalonID:  97,
		Customer: Customer{Name: "Anna Svensson", Email: "anna@gmail.com"},
		Date:     "2026-09-04", Time: "09:00",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	got, err := a.GetBookings(ctx, "anna@gmail.com")
	if err != nil {
		t.Fatalf("GetBookings: %v", err)
	}
	if len(got) != 1 || got[0].Customer.Name != "Anna Svensson" {
		t.Fatalf("bookings = %+v", got)
	}
}
