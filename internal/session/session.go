// Package session holds the per-call dialog state and its persistence. A
// session lives for the duration of one phone call and is keyed by the
// caller's session ID.
package session

import (
	"time"

	"github.com/nordicvoice/voicebooking/internal/booking"
)

// Dialog states.
type State string

const (
	StateCollecting            State = "collecting"
	StateAwaitingVerify        State = "awaiting_verification"
	StateAwaitingConfirm       State = "awaiting_confirm"
	StateBooked                State = "booked"
	StateAwaitingCancelRef     State = "awaiting_cancel_ref"
	StateAwaitingRescheduleRef State = "awaiting_reschedule_ref"
)

// Slot names collected during a call.
const (
	SlotName      = "name"
	SlotPhone     = "phone"
	SlotEmail     = "email"
	SlotTreatment = "treatment"
	SlotDate      = "date"
	SlotTime      = "time"
	SlotTimeID    = "time_id"

	// SlotPersonalNumber holds the identity number collected for BankID
	// verification. It is never part of the prompt order.
	SlotPersonalNumber = "personal_number"
)

// Session is the full dialog state for one call.
type Session struct {
	ID       string `json:"id"`
	Vertical string `json:"vertical"`
	SalonID  int    `json:"salon_id"`
	State    State  `json:"state"`

	Slots map[string]string `json:"slots"`

	// Verified is set once identity verification for this call completed.
	Verified        bool   `json:"verified"`
	VerificationRef string `json:"verification_ref,omitempty"`

	// OfferedSlots are the availability options last read to the caller,
	// kept so an ordinal answer ("den andra") can be resolved.
	OfferedSlots []booking.Slot `json:"offered_slots,omitempty"`

	// BookingCommitted marks that the provider call succeeded; BookingID is
	// the reference read back to the caller.
	BookingCommitted bool  `json:"booking_committed"`
	BookingID        int64 `json:"booking_id,omitempty"`

	// RescheduleRef holds the booking being moved while new date/time slots
	// are collected.
	RescheduleRef int64 `json:"reschedule_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh session in the collecting state.
func New(id, vertical string, salonID int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Vertical:  vertical,
		SalonID:   salonID,
		State:     StateCollecting,
		Slots:     make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Slot returns the value of a slot, or "" when unset.
func (s *Session) Slot(name string) string {
	return s.Slots[name]
}

// HasSlot reports whether a slot has been filled.
func (s *Session) HasSlot(name string) bool {
	return s.Slots[name] != ""
}

// SetSlot fills a slot. Once a slot holds a value, later extractions do not
// overwrite it; the caller must clear it first (correction flow). Returns
// true when the value was stored.
func (s *Session) SetSlot(name, value string) bool {
	if value == "" || s.Slots[name] != "" {
		return false
	}
	if s.Slots == nil {
		s.Slots = make(map[string]string)
	}
	s.Slots[name] = value
	return true
}

// ClearSlot removes a slot value so it can be re-collected.
func (s *Session) ClearSlot(name string) {
	delete(s.Slots, name)
}

// ClearSchedule drops the date, time and slot token, keeping contact slots.
func (s *Session) ClearSchedule() {
	s.ClearSlot(SlotDate)
	s.ClearSlot(SlotTime)
	s.ClearSlot(SlotTimeID)
	s.OfferedSlots = nil
}

// MissingSlot returns the first unfilled slot in the given order, or "".
func (s *Session) MissingSlot(order []string) string {
	for _, name := range order {
		if !s.HasSlot(name) {
			return name
		}
	}
	return ""
}
