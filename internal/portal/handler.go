package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

// CatalogEntry is one bookable service exposed by the portal API.
type CatalogEntry struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DurationMins int    `json:"duration_mins"`
}

// Handler serves the portal REST API on top of a Store.
type Handler struct {
	store   *Store
	catalog []CatalogEntry
	apiKey  string
	logger  *logging.Logger
}

// NewHandler creates a portal API handler. apiKey guards all routes; an empty
// key disables the check (local development).
func NewHandler(store *Store, catalog []CatalogEntry, apiKey string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, catalog: catalog, apiKey: apiKey, logger: logger}
}

// Routes mounts the portal API under the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.requireKey)
	r.Get("/services", h.listServices)
	r.Get("/availability", h.availability)
	r.Get("/bookings", h.listBookings)
	r.Post("/bookings/new", h.createBooking)
	r.Post("/bookings/{bookingID}/cancel", h.cancelBooking)
	r.Post("/bookings/{bookingID}/reschedule", h.rescheduleBooking)
}

func (h *Handler) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey != "" && r.Header.Get("X-Portal-Key") != h.apiKey {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// slotWire and bookingWire mirror the adapter wire format so the HTTP client
// in internal/booking can decode responses directly.
type slotWire struct {
	TimeID int64  `json:"time_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type customerWire struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type bookingWire struct {
	ID          int64        `json:"id"`
	SalonID     int          `json:"salon_id"`
	Customer    customerWire `json:"customer"`
	ServiceID   int          `json:"service_id"`
	ServiceName string       `json:"service_name"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Notes       string       `json:"notes"`
}

func toWire(r *Record) bookingWire {
	start, end := "", ""
	if r.Date != "" && r.Time != "" {
		start = r.Date + "T" + r.Time + ":00"
		end = r.Date + "T" + r.Time + ":50"
	}
	return bookingWire{
		ID:      r.ID,
		SalonID: r.SalonID,
		Customer: customerWire{
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

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": h.catalog})
}

// portalHours is the bookable hour grid. Lunch hour is kept free.
var portalHours = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00"}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	salonID, _ := strconv.Atoi(r.URL.Query().Get("salon_id"))
	serviceID, _ := strconv.Atoi(r.URL.Query().Get("service_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, `{"error":"missing date"}`, http.StatusBadRequest)
		return
	}

	taken, err := h.store.BookedTimes(r.Context(), salonID, date)
	if err != nil {
		h.logger.Error("failed to load booked times", "error", err, "salon_id", salonID, "date", date)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	slots := make([]slotWire, 0, len(portalHours))
	for _, hhmm := range portalHours {
		if taken[hhmm] {
			continue
		}
		slots = append(slots, slotWire{
			TimeID: SlotTimeID(serviceID, hhmm),
			Start:  date + "T" + hhmm + ":00",
			End:    date + "T" + hhmm + ":50",
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slots": slots})
}

// SlotTimeID derives the opaque slot token for a service and HH:MM time.
// Deterministic so a token can be resolved back without state.
func SlotTimeID(serviceID int, hhmm string) int64 {
	hh, _ := strconv.Atoi(hhmm[:2])
	mm, _ := strconv.Atoi(hhmm[3:])
	return int64(serviceID)*100000 + int64(hh)*100 + int64(mm)
}

// TimeFromSlotID is the inverse of SlotTimeID.
func TimeFromSlotID(timeID int64) string {
	hhmm := timeID % 100000
	hh := hhmm / 100
	mm := hhmm % 100
	return pad2(int(hh)) + ":" + pad2(int(mm))
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

type createBookingRequest struct {
	SalonID   int    `json:"salon_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	ServiceID int    `json:"service_id"`
	Treatment string `json:"treatment"`
	TimeID    int64  `json:"time_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes"`
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Date == "" {
		http.Error(w, `{"error":"missing name or date"}`, http.StatusBadRequest)
		return
	}
	if req.Time == "" && req.TimeID != 0 {
		req.Time = TimeFromSlotID(req.TimeID)
	}
	if req.Time == "" {
		http.Error(w, `{"error":"missing time"}`, http.StatusBadRequest)
		return
	}

	taken, err := h.store.BookedTimes(r.Context(), req.SalonID, req.Date)
	if err != nil {
		h.logger.Error("failed to check availability", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if taken[req.Time] {
		http.Error(w, `{"error":"time not available"}`, http.StatusConflict)
		return
	}

	rec, err := h.store.Insert(r.Context(), Record{
		SalonID:   req.SalonID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		ServiceID: req.ServiceID,
		Treatment: req.Treatment,
		Date:      req.Date,
		Time:      req.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		h.logger.Error("failed to create booking", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("booking created", "booking_id", rec.ID, "salon_id", rec.SalonID, "date", rec.Date, "time", rec.Time)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"booking": toWire(rec)})
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	salonID, _ := strconv.Atoi(r.URL.Query().Get("salon_id"))
	customer := strings.TrimSpace(r.URL.Query().Get("customer"))

	recs, err := h.store.List(r.Context(), salonID, customer)
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	out := make([]bookingWire, 0, len(recs))
	for i := range recs {
		out = append(out, toWire(&recs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": out})
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}
	rec, err := h.store.Cancel(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"booking not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to cancel booking", "error", err, "booking_id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("booking cancelled", "booking_id", id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": toWire(rec)})
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) rescheduleBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Time == "" {
		http.Error(w, `{"error":"missing date or time"}`, http.StatusBadRequest)
		return
	}
	rec, err := h.store.Reschedule(r.Context(), id, req.Date, req.Time)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"booking not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to reschedule booking", "error", err, "booking_id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("booking rescheduled", "booking_id", id, "date", req.Date, "time", req.Time)
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": toWire(rec)})
}
