package booking

import (
	"context"
	"errors"

	"github.com/nordicvoice/voicebooking/internal/portal"
)

// LocalAdapter writes bookings straight into the portal store. Used when the
// dialog service and the portal share a process.
type LocalAdapter struct {
	store    *portal.Store
	services []Service
}

// NewLocalAdapter creates a store-backed adapter with a static catalog.
func NewLocalAdapter(store *portal.Store, services []Service) *LocalAdapter {
	return &LocalAdapter{store: store, services: services}
}

func (a *LocalAdapter) Name() string { return "local" }

func (a *LocalAdapter) ListServices(ctx context.Context, salonID int) ([]Service, error) {
	return a.services, nil
}

func (a *LocalAdapter) CheckAvailability(ctx context.Context, salonID, serviceID int, dateISO string) ([]Slot, error) {
	taken, err := a.store.BookedTimes(ctx, salonID, dateISO)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(localHours))
	for _, hhmm := range localHours {
		if taken[hhmm] {
			continue
		}
		slots = append(slots, Slot{
			TimeID: portal.SlotTimeID(serviceID, hhmm),
			Start:  dateISO + "T" + hhmm + ":00",
			End:    dateISO + "T" + hhmm + ":50",
		})
	}
	return slots, nil
}

var localHours = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00"}

func (a *LocalAdapter) CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error) {
	hhmm := req.Time
	if hhmm == "" && req.TimeID != 0 {
		hhmm = portal.TimeFromSlotID(req.TimeID)
	}
	if req.Date == "" || hhmm == "" {
		return nil, ErrTimeNotAvailable
	}
	taken, err := a.store.BookedTimes(ctx, req.SalonID, req.Date)
	if err != nil {
		return nil, err
	}
	if taken[hhmm] {
		return nil, ErrTimeNotAvailable
	}

	rec, err := a.store.Insert(ctx, portal.Record{
		SalonID:   req.SalonID,
		Name:      req.Customer.Name,
		Email:     req.Customer.Email,
		Phone:     req.Customer.Phone,
		ServiceID: req.ServiceID,
		Treatment: req.ServiceName,
		Date:      req.Date,
		Time:      hhmm,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}
	b := recordToBooking(rec)
	return &b, nil
}

func (a *LocalAdapter) CancelBooking(ctx context.Context, salonID int, bookingID int64) (*Booking, error) {
	rec, err := a.store.Cancel(ctx, bookingID)
	if errors.Is(err, portal.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b := recordToBooking(rec)
	return &b, nil
}

func (a *LocalAdapter) GetBookings(ctx context.Context, customerID string) ([]Booking, error) {
	recs, err := a.store.List(ctx, 0, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]Booking, 0, len(recs))
	for i := range recs {
		out = append(out, recordToBooking(&recs[i]))
	}
	return out, nil
}

func recordToBooking(r *portal.Record) Booking {
	start, end := "", ""
	if r.Date != "" && r.Time != "" {
		start = r.Date + "T" + r.Time + ":00"
		end = r.Date + "T" + r.Time + ":50"
	}
	return Booking{
		ID:      r.ID,
		SalonID: r.SalonID,
		Customer: Customer{
			Name:  r.Name,
			Email: r.Email,
			Phone: r.Phone,
		},
		ServiceID:   r.ServiceID,
		ServiceName: r.Treatment,
		Date:        r.Date,
		Time:        r.Time,
		Start:       start,
		End:         end,
		Notes:       r.Notes,
	}
}
