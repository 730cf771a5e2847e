package booking

import (
	"context"
	"fmt"
	"sync"
)

// Errors shared by adapters.
var (
	ErrTimeNotAvailable = fmt.Errorf("booking: time_not_available")
	ErrNotFound         = fmt.Errorf("booking: not_found")
)

// MockAdapter is an in-memory provider for demos and tests. Availability is
// seeded lazily per (salon, service, date) on a fixed hour grid so flows are
// reproducible.
type MockAdapter struct {
	mu         sync.Mutex
	services   []Service
	avails     map[string][]Slot
	bookings   map[int64]Booking
	nextTimeID int64
	nextID     int64
}

var mockHours = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00"}

// NewMockAdapter creates a mock provider with the given catalog.
func NewMockAdapter(services []Service) *MockAdapter {
	return &MockAdapter{
		services:   services,
		avails:     make(map[string][]Slot),
		bookings:   make(map[int64]Booking),
		nextTimeID: 4700000,
		nextID:     500000,
	}
}

func (a *MockAdapter) Name() string { return "mock" }

func (a *MockAdapter) ListServices(ctx context.Context, salonID int) ([]Service, error) {
	return a.services, nil
}

func availKey(salonID, serviceID int, dateISO string) string {
	return fmt.Sprintf("%d:%d:%s", salonID, serviceID, dateISO)
}

func (a *MockAdapter) CheckAvailability(ctx context.Context, salonID, serviceID int, dateISO string) ([]Slot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := availKey(salonID, serviceID, dateISO)
	if slots, ok := a.avails[key]; ok {
		return slots, nil
	}
	slots := make([]Slot, 0, len(mockHours))
	for _, hhmm := range mockHours {
		a.nextTimeID++
		slots = append(slots, Slot{
			TimeID: a.nextTimeID,
			Start:  dateISO + "T" + hhmm + ":00",
			End:    dateISO + "T" + hhmm + ":50",
		})
	}
	a.avails[key] = slots
	return slots, nil
}

func (a *MockAdapter) CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := ""
	end := ""
	if req.TimeID != 0 {
		slot, ok := a.findSlot(req.TimeID)
		if !ok {
			return nil, ErrTimeNotAvailable
		}
		start, end = slot.Start, slot.End
	} else if req.Date != "" && req.Time != "" {
		start = req.Date + "T" + req.Time + ":00"
		end = req.Date + "T" + req.Time + ":50"
	} else {
		return nil, ErrTimeNotAvailable
	}

	a.nextID++
	b := Booking{
		ID:          a.nextID,
		SalonID:     req.SalonID,
		Customer:    req.Customer,
		ServiceID:   req.ServiceID,
		ServiceName: a.serviceName(req.ServiceID, req.ServiceName),
		Date:        start[:10],
		Time:        start[11:16],
		Start:       start,
		End:         end,
		Notes:       req.Notes,
	}
	a.bookings[b.ID] = b
	return &b, nil
}

func (a *MockAdapter) CancelBooking(ctx context.Context, salonID int, bookingID int64) (*Booking, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.bookings[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(a.bookings, bookingID)
	return &b, nil
}

func (a *MockAdapter) GetBookings(ctx context.Context, customerID string) ([]Booking, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Booking
	for _, b := range a.bookings {
		if b.Customer.ID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (a *MockAdapter) findSlot(timeID int64) (Slot, bool) {
	for _, slots := range a.avails {
		for _, s := range slots {
			if s.TimeID == timeID {
				return s, true
			}
		}
	}
	return Slot{}, false
}

func (a *MockAdapter) serviceName(id int, fallback string) string {
	for _, s := range a.services {
		if s.ID == id {
			return s.Name
		}
	}
	if fallback != "" {
		return fallback
	}
	return "Okänd"
}
