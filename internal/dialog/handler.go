package dialog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nordicvoice/voicebooking/internal/booking"
	"github.com/nordicvoice/voicebooking/internal/session"
	"github.com/nordicvoice/voicebooking/pkg/logging"
)

// Handler exposes the dialog engine over HTTP for the voice front-end.
type Handler struct {
	engine   *Engine
	adapter  booking.Adapter
	sessions session.Store
	logger   *logging.Logger
}

// NewHandler creates the dialog HTTP handler.
func NewHandler(engine *Engine, adapter booking.Adapter, sessions session.Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, adapter: adapter, sessions: sessions, logger: logger}
}

// Routes mounts the dialog API under the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/turn", h.turn)
	r.Post("/sessions", h.startSession)
	r.Delete("/sessions/{sessionID}", h.endSession)
	r.Post("/sessions/{sessionID}/reset", h.resetSession)
	r.Get("/services", h.listServices)
	r.Get("/availability", h.availability)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	reply, err := h.engine.ProcessTurn(r.Context(), req)
	if errors.Is(err, ErrMissingSession) || errors.Is(err, ErrEmptyTurn) {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("turn processing failed", "error", err, "session_id", req.SessionID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type startSessionRequest struct {
	Vertical string `json:"vertical"`
	SalonID  int    `json:"salon_id"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Vertical == "" {
		req.Vertical = "hair"
	}
	v := VerticalByName(req.Vertical, req.SalonID)
	salonID := req.SalonID
	if salonID == 0 {
		salonID = v.DefaultSalonID
	}

	s := session.New(uuid.NewString(), v.Name, salonID)
	if err := h.sessions.Save(r.Context(), s); err != nil {
		h.logger.Error("session create failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": s.ID,
		"vertical":   s.Vertical,
		"response":   msgGreeting,
	})
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.logger.Error("session delete failed", "error", err, "session_id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resetSession drops everything collected so far and starts the dialog over
// under the same session id. Used when the caller asks to start from scratch.
func (h *Handler) resetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	old, err := h.sessions.Load(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("session load failed", "error", err, "session_id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	fresh := session.New(id, old.Vertical, old.SalonID)
	if err := h.sessions.Save(r.Context(), fresh); err != nil {
		h.logger.Error("session reset failed", "error", err, "session_id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"vertical":   fresh.Vertical,
		"response":   msgGreeting,
	})
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	salonID, _ := strconv.Atoi(r.URL.Query().Get("salon_id"))
	services, err := h.adapter.ListServices(r.Context(), salonID)
	if err != nil {
		h.logger.Error("service list failed", "error", err, "salon_id", salonID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	salonID, _ := strconv.Atoi(r.URL.Query().Get("salon_id"))
	serviceID, _ := strconv.Atoi(r.URL.Query().Get("service_id"))
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, `{"error":"missing date"}`, http.StatusBadRequest)
		return
	}
	slots, err := h.adapter.CheckAvailability(r.Context(), salonID, serviceID, date)
	if err != nil {
		h.logger.Error("availability lookup failed", "error", err, "salon_id", salonID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slots": slots})
}
