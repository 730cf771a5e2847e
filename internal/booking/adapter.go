// Package booking provides a unified adapter interface for the downstream
// reservation systems (salon partner APIs, the local portal, mocks). The
// dialog core treats every provider uniformly and never inspects TimeID
// values beyond passing them back unchanged.
package booking

import "context"

// Service is one bookable treatment or haircut in a provider's catalog.
type Service struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DurationMins int    `json:"duration_mins"`
}

// Slot is a single availability window. TimeID is an opaque provider token:
// it is returned by CheckAvailability and passed back verbatim when booking.
type Slot struct {
	TimeID int64  `json:"time_id"`
	Start  string `json:"start"` // 2006-01-02T15:04:05
	End    string `json:"end"`
}

// Customer identifies the person the booking is for.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking is a confirmed reservation as reported by the provider.
type Booking struct {
	ID          int64    `json:"id"`
	SalonID     int      `json:"salon_id"`
	Customer    Customer `json:"customer"`
	ServiceID   int      `json:"service_id"`
	ServiceName string   `json:"service_name"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Notes       string   `json:"notes"`
}

// CreateRequest carries everything a provider may need to create a booking.
// Slot-based providers use TimeID; date/time providers use Date and Time.
type CreateRequest struct {
	SalonID     int
	Customer    Customer
	ServiceID   int
	ServiceName string
	TimeID      int64
	Date        string // 2006-01-02
	Time        string // 15:04
	Notes       string
}

// Adapter is implemented by every reservation backend.
type Adapter interface {
	// Name returns the provider identifier (e.g. "mock", "portal", "local").
	Name() string

	// ListServices returns the provider's catalog for a salon.
	ListServices(ctx context.Context, salonID int) ([]Service, error)

	// CheckAvailability returns open slots for a service on a date.
	CheckAvailability(ctx context.Context, salonID, serviceID int, dateISO string) ([]Slot, error)

	// CreateBooking creates a reservation and returns the confirmed record.
	CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error)

	// CancelBooking cancels by reference and returns the canceled record.
	CancelBooking(ctx context.Context, salonID int, bookingID int64) (*Booking, error)

	// GetBookings lists a customer's bookings, newest first.
	GetBookings(ctx context.Context, customerID string) ([]Booking, error)
}
