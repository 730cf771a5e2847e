// Package dialog implements the slot-filling dialog engine that drives
// voice bookings. Each recognized utterance becomes one turn; the engine
// extracts whatever it can, asks for the first missing slot, and commits the
// booking only after an explicit confirmation.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nordicvoice/voicebooking/internal/booking"
	"github.com/nordicvoice/voicebooking/internal/extract"
	"github.com/nordicvoice/voicebooking/internal/normalize"
	"github.com/nordicvoice/voicebooking/internal/notify"
	"github.com/nordicvoice/voicebooking/internal/observability/metrics"
	"github.com/nordicvoice/voicebooking/internal/session"
	"github.com/nordicvoice/voicebooking/internal/verify"
	"github.com/nordicvoice/voicebooking/pkg/logging"
)

// Request validation errors.
var (
	ErrMissingSession = errors.New("dialog: session_id is required")
	ErrEmptyTurn      = errors.New("dialog: empty utterance in final turn")
)

const slotServiceID = "service_id"

// Engine processes dialog turns. Turns for the same session are serialized
// through striped locks; turns for different sessions run concurrently.
type Engine struct {
	sessions     session.Store
	adapter      booking.Adapter
	fingerprints FingerprintStore
	logger       *logging.Logger

	verifier verify.Verifier

	sms     notify.SMSSender
	outbox  *notify.Outbox
	metrics *metrics.DialogMetrics

	now   func() time.Time
	locks [64]sync.Mutex
}

// NewEngine creates a dialog engine.
func NewEngine(sessions session.Store, adapter booking.Adapter, fps FingerprintStore, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		sessions:     sessions,
		adapter:      adapter,
		fingerprints: fps,
		logger:       logger,
		now:          time.Now,
	}
}

// WithVerifier installs the identity provider.
func (e *Engine) WithVerifier(v verify.Verifier) *Engine {
	e.verifier = v
	return e
}

// WithSMS installs the confirmation SMS sender.
func (e *Engine) WithSMS(s notify.SMSSender) *Engine {
	e.sms = s
	return e
}

// WithOutbox installs the confirmation email outbox.
func (e *Engine) WithOutbox(o *notify.Outbox) *Engine {
	e.outbox = o
	return e
}

// WithMetrics installs dialog metrics.
func (e *Engine) WithMetrics(m *metrics.DialogMetrics) *Engine {
	e.metrics = m
	return e
}

// WithClock overrides the time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &e.locks[h.Sum32()%uint32(len(e.locks))]
}

// ProcessTurn handles one utterance and returns what to say next.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnReply, error) {
	if req.SessionID == "" {
		return nil, ErrMissingSession
	}

	mu := e.lockFor(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	s, err := e.sessions.Load(ctx, req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		vertical := req.Vertical
		if vertical == "" {
			vertical = "hair"
		}
		s = session.New(req.SessionID, vertical, req.SalonID)
	} else if err != nil {
		return nil, err
	}

	// Interim recognition results keep the session alive but never advance
	// the dialog.
	if !req.IsFinal {
		if err := e.sessions.Save(ctx, s); err != nil {
			return nil, err
		}
		return &TurnReply{SessionID: s.ID, State: string(s.State)}, nil
	}
	if req.Text == "" {
		return nil, ErrEmptyTurn
	}

	started := e.now()
	v := VerticalByName(s.Vertical, s.SalonID)
	if s.SalonID == 0 {
		s.SalonID = v.DefaultSalonID
	}

	reply := e.step(ctx, s, v, req)
	reply.SessionID = s.ID
	reply.State = string(s.State)
	if s.BookingCommitted {
		reply.BookingID = s.BookingID
	}

	if err := e.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	if reply.EndCall {
		e.sessions.Delete(ctx, s.ID)
	}

	outcome := "ok"
	if s.State == session.StateBooked {
		outcome = "booked"
	}
	e.metrics.ObserveTurn(v.Name, outcome, e.now().Sub(started).Seconds())
	return reply, nil
}

func (e *Engine) step(ctx context.Context, s *session.Session, v *Vertical, req TurnRequest) *TurnReply {
	raw := req.Text
	norm := normalize.Normalize(raw)

	switch s.State {
	case session.StateAwaitingConfirm:
		return e.stepConfirm(ctx, s, v, norm)
	case session.StateAwaitingVerify:
		return e.stepVerify(ctx, s, v, norm, req.CallerIP)
	case session.StateAwaitingCancelRef:
		return e.stepCancelRef(ctx, s, v, norm)
	case session.StateAwaitingRescheduleRef:
		return e.stepRescheduleRef(s, norm)
	case session.StateBooked:
		return e.stepBooked(ctx, s, v, norm)
	default:
		return e.stepCollect(ctx, s, v, raw, norm, req.CallerIP)
	}
}

func (e *Engine) stepCollect(ctx context.Context, s *session.Session, v *Vertical, raw, norm, callerIP string) *TurnReply {
	// Reschedule is checked before cancel: "jag vill omboka" contains both
	// intents for a naive matcher.
	if s.RescheduleRef == 0 {
		if extract.RescheduleIntent(norm) {
			s.State = session.StateAwaitingRescheduleRef
			return &TurnReply{Response: msgAskRescheduleRef}
		}
		if extract.CancelIntent(norm) {
			s.State = session.StateAwaitingCancelRef
			return &TurnReply{Response: msgAskCancelRef}
		}
	}

	if correctionIntent(norm) {
		e.applyCorrections(s, v, raw, norm)
	}

	filled := e.fillSlots(s, v, raw, norm)

	// A reschedule only needs the new date and time; contact details come
	// from the old booking.
	if s.RescheduleRef != 0 {
		if s.HasSlot(session.SlotDate) && s.HasSlot(session.SlotTime) {
			return e.commitReschedule(ctx, s, v)
		}
		if !s.HasSlot(session.SlotDate) {
			return &TurnReply{Response: promptFor(session.SlotDate)}
		}
		return &TurnReply{Response: promptFor(session.SlotTime)}
	}

	missing := s.MissingSlot(v.SlotOrder)
	if missing == session.SlotTime && v.UsesAvailability {
		return e.offerOrPickSlot(ctx, s, v, norm)
	}
	if missing != "" {
		// A fresh session with nothing extracted is a greeting, not a
		// failed answer.
		if filled == 0 && len(s.Slots) > 0 {
			return &TurnReply{Response: repromptFor(missing)}
		}
		return &TurnReply{Response: promptFor(missing)}
	}

	if v.RequiresVerification && !s.Verified {
		return e.startVerification(ctx, s, norm, callerIP)
	}

	s.State = session.StateAwaitingConfirm
	return &TurnReply{Response: confirmSummary(s, s.Slot(session.SlotTreatment))}
}

// fillSlots runs every extractor against the utterance and fills whichever
// slots are still empty. Returns how many were filled this turn.
func (e *Engine) fillSlots(s *session.Session, v *Vertical, raw, norm string) int {
	filled := 0
	record := func(slot string, ok bool) {
		if ok {
			filled++
			e.metrics.ObserveSlotFilled(slot)
		}
	}

	// The name extractor works on the raw text so casing survives.
	if !s.HasSlot(session.SlotName) {
		record(session.SlotName, s.SetSlot(session.SlotName, extract.Name(raw)))
	}
	if !s.HasSlot(session.SlotPhone) {
		record(session.SlotPhone, s.SetSlot(session.SlotPhone, extract.Phone(norm)))
	}
	if !s.HasSlot(session.SlotEmail) {
		record(session.SlotEmail, s.SetSlot(session.SlotEmail, extract.Email(raw)))
	}
	if !s.HasSlot(session.SlotTreatment) {
		if entry, ok := extract.MatchService(norm, v.Catalog); ok {
			s.SetSlot(session.SlotTreatment, entry.Name)
			s.SetSlot(slotServiceID, strconv.Itoa(entry.ID))
			record(session.SlotTreatment, true)
		}
	}
	if !s.HasSlot(session.SlotDate) {
		record(session.SlotDate, s.SetSlot(session.SlotDate, extract.Date(norm, e.now())))
	}
	// Rescheduling takes a free-form time even when the vertical normally
	// picks from availability; the new time replaces a known booking.
	if !s.HasSlot(session.SlotTime) && (!v.UsesAvailability || s.RescheduleRef != 0) {
		record(session.SlotTime, s.SetSlot(session.SlotTime, extract.TimeOfDay(norm)))
	}
	return filled
}

// correction words signal the caller wants to replace something already
// collected.
func correctionIntent(norm string) bool {
	for _, w := range []string{"ändra", "fel", "istället", "inte rätt", "byt "} {
		if strings.Contains(norm, w) {
			return true
		}
	}
	return false
}

// applyCorrections replaces filled slots whose extractor fires with a
// different value on this utterance.
func (e *Engine) applyCorrections(s *session.Session, v *Vertical, raw, norm string) {
	type candidate struct {
		slot  string
		value string
	}
	cands := []candidate{
		{session.SlotPhone, extract.Phone(norm)},
		{session.SlotEmail, extract.Email(raw)},
		{session.SlotDate, extract.Date(norm, e.now())},
		{session.SlotTime, extract.TimeOfDay(norm)},
	}
	for _, c := range cands {
		if c.value != "" && s.HasSlot(c.slot) && s.Slot(c.slot) != c.value {
			s.ClearSlot(c.slot)
			s.SetSlot(c.slot, c.value)
			if c.slot == session.SlotTime || c.slot == session.SlotDate {
				s.ClearSlot(session.SlotTimeID)
				s.OfferedSlots = nil
			}
		}
	}
	if entry, ok := extract.MatchService(norm, v.Catalog); ok && s.HasSlot(session.SlotTreatment) && s.Slot(session.SlotTreatment) != entry.Name {
		s.ClearSlot(session.SlotTreatment)
		s.ClearSlot(slotServiceID)
		s.SetSlot(session.SlotTreatment, entry.Name)
		s.SetSlot(slotServiceID, strconv.Itoa(entry.ID))
	}
}

// offerOrPickSlot handles the availability-driven time slot: first offer the
// open times for the chosen date, then resolve the caller's pick by ordinal
// or by clock time.
func (e *Engine) offerOrPickSlot(ctx context.Context, s *session.Session, v *Vertical, norm string) *TurnReply {
	serviceID, _ := strconv.Atoi(s.Slot(slotServiceID))

	if len(s.OfferedSlots) == 0 {
		slots, err := e.adapter.CheckAvailability(ctx, s.SalonID, serviceID, s.Slot(session.SlotDate))
		if err != nil {
			e.logger.Error("availability lookup failed", "error", err, "salon_id", s.SalonID)
			return &TurnReply{Response: msgCommitFailed}
		}
		if len(slots) == 0 {
			s.ClearSlot(session.SlotDate)
			return &TurnReply{Response: offerSlots(nil)}
		}
		s.OfferedSlots = slots
		return &TurnReply{Response: offerSlots(slots)}
	}

	picked := extract.OrdinalPick(norm, len(s.OfferedSlots))
	if picked < 0 {
		if hhmm := extract.TimeOfDay(norm); hhmm != "" {
			for i, slot := range s.OfferedSlots {
				if slot.Start[11:16] == hhmm {
					picked = i
					break
				}
			}
		}
	}
	if picked < 0 || picked >= len(s.OfferedSlots) {
		return &TurnReply{Response: offerSlots(s.OfferedSlots)}
	}

	slot := s.OfferedSlots[picked]
	s.SetSlot(session.SlotTime, slot.Start[11:16])
	s.SetSlot(session.SlotTimeID, strconv.FormatInt(slot.TimeID, 10))
	e.metrics.ObserveSlotFilled(session.SlotTime)

	if v.RequiresVerification && !s.Verified {
		return e.startVerification(ctx, s, norm, "")
	}
	s.State = session.StateAwaitingConfirm
	return &TurnReply{Response: confirmSummary(s, s.Slot(session.SlotTreatment))}
}

// startVerification enters the identity gate. The personal number is asked
// for first; the provider order starts only once one has been collected. With
// no order in flight (fresh gate, or a previous order failed) this is also
// the retry path.
func (e *Engine) startVerification(ctx context.Context, s *session.Session, norm, callerIP string) *TurnReply {
	if e.verifier == nil {
		// No provider wired: treat as verified rather than dead-ending.
		s.Verified = true
		s.State = session.StateAwaitingConfirm
		return &TurnReply{Response: confirmSummary(s, s.Slot(session.SlotTreatment))}
	}

	if !s.HasSlot(session.SlotPersonalNumber) {
		if pnr := extract.PersonalNumber(norm); pnr != "" {
			s.SetSlot(session.SlotPersonalNumber, pnr)
		}
	}
	s.State = session.StateAwaitingVerify
	if !s.HasSlot(session.SlotPersonalNumber) {
		return &TurnReply{Response: msgAskPersonalNumber}
	}

	ref, err := e.verifier.Start(ctx, s.Slot(session.SlotPersonalNumber), callerIP)
	if err != nil {
		e.logger.Error("verification start failed", "error", err)
		e.metrics.ObserveVerification("start_failed")
		return &TurnReply{Response: msgVerifyFailed}
	}
	s.VerificationRef = ref
	return &TurnReply{Response: msgVerifyStart}
}

// stepVerify makes at most one Collect call per turn. A pending order keeps
// the caller waiting; a failed or lost order clears the reference so the next
// willing turn starts a fresh one.
func (e *Engine) stepVerify(ctx context.Context, s *session.Session, v *Vertical, norm, callerIP string) *TurnReply {
	if extract.No(norm) {
		s.State = session.StateCollecting
		e.metrics.ObserveVerification("declined")
		return &TurnReply{Response: msgGoodbye, EndCall: true}
	}

	if s.VerificationRef == "" {
		return e.startVerification(ctx, s, norm, callerIP)
	}

	st, err := e.verifier.Collect(ctx, s.VerificationRef)
	if err != nil {
		e.logger.Error("verification poll failed", "error", err)
		e.metrics.ObserveVerification("error")
		s.VerificationRef = ""
		return &TurnReply{Response: msgVerifyFailed}
	}
	switch st.State {
	case verify.StateComplete:
		s.Verified = true
		e.metrics.ObserveVerification("complete")
		s.State = session.StateAwaitingConfirm
		return &TurnReply{Response: msgVerifyDone + " " + confirmSummary(s, s.Slot(session.SlotTreatment))}
	case verify.StateFailed:
		e.metrics.ObserveVerification("failed")
		s.VerificationRef = ""
		return &TurnReply{Response: msgVerifyFailed}
	default:
		return &TurnReply{Response: msgVerifyPending}
	}
}

func (e *Engine) stepConfirm(ctx context.Context, s *session.Session, v *Vertical, norm string) *TurnReply {
	// No is checked first: "nej, jag vill ändra" must never read as a yes.
	// The time slot is cleared so the caller can pick another without a
	// correction phrase; contact slots stay.
	if extract.No(norm) {
		s.ClearSlot(session.SlotTime)
		s.ClearSlot(session.SlotTimeID)
		s.State = session.StateCollecting
		return &TurnReply{Response: msgDeclined}
	}
	if !extract.Yes(norm) {
		return &TurnReply{Response: msgConfirmRepeat}
	}
	return e.commit(ctx, s, v)
}

func (e *Engine) commit(ctx context.Context, s *session.Session, v *Vertical) *TurnReply {
	fp := Fingerprint(
		s.Slot(session.SlotName), s.Slot(session.SlotEmail),
		s.Slot(session.SlotDate), s.Slot(session.SlotTime),
		s.Slot(session.SlotTreatment))

	if id, seen, err := e.fingerprints.Seen(ctx, fp); err != nil {
		e.logger.Error("fingerprint lookup failed", "error", err)
	} else if seen {
		e.metrics.ObserveCommit("duplicate_attempt")
		s.State = session.StateBooked
		s.BookingCommitted = true
		s.BookingID = id
		return &TurnReply{Response: fmt.Sprintf(msgAlreadyBookedFmt, id)}
	}

	serviceID, _ := strconv.Atoi(s.Slot(slotServiceID))
	timeID, _ := strconv.ParseInt(s.Slot(session.SlotTimeID), 10, 64)

	b, err := e.adapter.CreateBooking(ctx, booking.CreateRequest{
		SalonID: s.SalonID,
		Customer: booking.Customer{
			Name:  s.Slot(session.SlotName),
			Email: s.Slot(session.SlotEmail),
			Phone: s.Slot(session.SlotPhone),
		},
		ServiceID:   serviceID,
		ServiceName: s.Slot(session.SlotTreatment),
		TimeID:      timeID,
		Date:        s.Slot(session.SlotDate),
		Time:        s.Slot(session.SlotTime),
	})
	if errors.Is(err, booking.ErrTimeNotAvailable) {
		e.metrics.ObserveCommit("time_taken")
		taken := s.Slot(session.SlotTime)
		s.ClearSchedule()
		s.State = session.StateCollecting
		return &TurnReply{Response: fmt.Sprintf(msgTimeTakenFmt, taken)}
	}
	if err != nil {
		e.logger.Error("booking commit failed", "error", err, "salon_id", s.SalonID)
		e.metrics.ObserveCommit("error")
		return &TurnReply{Response: msgCommitFailed}
	}

	if err := e.fingerprints.Record(ctx, fp, b.ID); err != nil {
		e.logger.Error("fingerprint record failed", "error", err, "booking_id", b.ID)
	}
	e.metrics.ObserveCommit("committed")

	s.State = session.StateBooked
	s.BookingCommitted = true
	s.BookingID = b.ID
	e.sendConfirmations(ctx, s, v, b)

	return &TurnReply{Response: fmt.Sprintf(msgConfirmedFmt, b.ID)}
}

// sendConfirmations queues the email and fires the SMS. Neither failure
// blocks the call; the booking is already committed.
func (e *Engine) sendConfirmations(ctx context.Context, s *session.Session, v *Vertical, b *booking.Booking) {
	details := notify.BookingDetails{
		BookingID: b.ID,
		Name:      b.Customer.Name,
		Email:     b.Customer.Email,
		Phone:     b.Customer.Phone,
		Service:   b.ServiceName,
		Date:      b.Date,
		Time:      b.Time,
		Business:  v.Business,
	}
	if e.outbox != nil && details.Email != "" {
		idemKey := fmt.Sprintf("booking:%d:%s", b.ID, details.Email)
		if _, err := e.outbox.Enqueue(ctx, notify.ConfirmationEmail(details), idemKey); err != nil {
			e.logger.Error("confirmation enqueue failed", "error", err, "booking_id", b.ID)
		}
	}
	if e.sms != nil && details.Phone != "" {
		go func() {
			smsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			if err := e.sms.SendSMS(smsCtx, details.Phone, notify.ConfirmationSMS(details)); err != nil {
				e.logger.Error("confirmation sms failed", "error", err, "booking_id", b.ID)
			}
		}()
	}
}

func (e *Engine) stepCancelRef(ctx context.Context, s *session.Session, v *Vertical, norm string) *TurnReply {
	ref := extract.BookingRef(norm)
	if ref == "" {
		return &TurnReply{Response: msgAskCancelRef}
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return &TurnReply{Response: msgCancelNotFound}
	}

	b, err := e.adapter.CancelBooking(ctx, s.SalonID, id)
	if errors.Is(err, booking.ErrNotFound) {
		return &TurnReply{Response: msgCancelNotFound}
	}
	if err != nil {
		e.logger.Error("cancel failed", "error", err, "booking_id", id)
		return &TurnReply{Response: msgCommitFailed}
	}

	if e.sms != nil && b.Customer.Phone != "" {
		go func() {
			smsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			e.sms.SendSMS(smsCtx, b.Customer.Phone, notify.CancellationSMS(notify.BookingDetails{
				BookingID: b.ID, Business: v.Business,
			}))
		}()
	}

	s.State = session.StateCollecting
	return &TurnReply{Response: fmt.Sprintf(msgCancelledFmt, id)}
}

func (e *Engine) stepRescheduleRef(s *session.Session, norm string) *TurnReply {
	ref := extract.BookingRef(norm)
	if ref == "" {
		return &TurnReply{Response: msgAskRescheduleRef}
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return &TurnReply{Response: msgCancelNotFound}
	}
	s.RescheduleRef = id
	s.ClearSchedule()
	s.State = session.StateCollecting
	return &TurnReply{Response: msgRescheduleNewTime}
}

// commitReschedule cancels the old booking and books the new time. The two
// steps are not atomic: when the second fails, the caller is told the old
// time is gone and given the old reference for follow-up.
func (e *Engine) commitReschedule(ctx context.Context, s *session.Session, v *Vertical) *TurnReply {
	oldID := s.RescheduleRef
	old, err := e.adapter.CancelBooking(ctx, s.SalonID, oldID)
	if errors.Is(err, booking.ErrNotFound) {
		s.RescheduleRef = 0
		s.ClearSchedule()
		return &TurnReply{Response: msgCancelNotFound}
	}
	if err != nil {
		e.logger.Error("reschedule cancel failed", "error", err, "booking_id", oldID)
		return &TurnReply{Response: msgCommitFailed}
	}

	b, err := e.adapter.CreateBooking(ctx, booking.CreateRequest{
		SalonID:     s.SalonID,
		Customer:    old.Customer,
		ServiceID:   old.ServiceID,
		ServiceName: old.ServiceName,
		Date:        s.Slot(session.SlotDate),
		Time:        s.Slot(session.SlotTime),
	})
	if err != nil {
		e.logger.Error("reschedule rebook failed", "error", err, "old_booking_id", oldID)
		e.metrics.ObserveCommit("reschedule_failed")
		s.RescheduleRef = 0
		s.ClearSchedule()
		return &TurnReply{Response: fmt.Sprintf(msgRescheduleFailFmt, oldID)}
	}

	e.metrics.ObserveCommit("rescheduled")
	s.RescheduleRef = 0
	s.State = session.StateBooked
	s.BookingCommitted = true
	s.BookingID = b.ID
	e.sendConfirmations(ctx, s, v, b)
	return &TurnReply{Response: fmt.Sprintf(msgConfirmedFmt, b.ID)}
}

func (e *Engine) stepBooked(ctx context.Context, s *session.Session, v *Vertical, norm string) *TurnReply {
	if extract.RescheduleIntent(norm) {
		s.State = session.StateAwaitingRescheduleRef
		return &TurnReply{Response: msgAskRescheduleRef}
	}
	if extract.CancelIntent(norm) {
		s.State = session.StateAwaitingCancelRef
		return &TurnReply{Response: msgAskCancelRef}
	}
	if extract.No(norm) {
		return &TurnReply{Response: msgGoodbye, EndCall: true}
	}
	return &TurnReply{Response: msgGoodbye, EndCall: true}
}
