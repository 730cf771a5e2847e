package portal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "bookings.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog := []CatalogEntry{
		{ID: 301, Name: "Klippning kort hår", DurationMins: 30},
		{ID: 298, Name: "Klippning rek. Långt och tjockt hår", DurationMins: 50},
	}
	h := NewHandler(store, catalog, "test-key", logging.Default())

	r := chi.NewRouter()
	r.Route("/portal/api", h.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doReq(t *testing.T, method, url string, body interface{}, key string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if key != "" {
		req.Header.Set("X-Portal-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var out map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHandlerRequiresKey(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doReq(t, http.MethodGet, srv.URL+"/portal/api/services", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", resp.StatusCode)
	}

	resp, out := doReq(t, http.MethodGet, srv.URL+"/portal/api/services", nil, "test-key")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with key = %d", resp.StatusCode)
	}
	if services := out["services"].([]interface{}); len(services) != 2 {
		t.Errorf("services = %v", services)
	}
}

func TestHandlerBookingFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, out := doReq(t, http.MethodPost, srv.URL+"/portal/api/bookings/new", map[string]interface{}{
		"salon_id": 97, "name": "Anna Svensson", "email": "anna@gmail.com",
		"service_id": 301, "treatment": "Klippning kort hår",
		"date": "2026-09-04", "time": "14:00",
	}, "test-key")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %v", resp.StatusCode, out)
	}
	booking := out["booking"].(map[string]interface{})
	id := int64(booking["id"].(float64))
	if id == 0 {
		t.Fatal("no booking id")
	}

	// Same hour again conflicts.
	resp, _ = doReq(t, http.MethodPost, srv.URL+"/portal/api/bookings/new", map[string]interface{}{
		"salon_id": 97, "name": "Erik Lund", "date": "2026-09-04", "time": "14:00",
	}, "test-key")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate hour status = %d, want 409", resp.StatusCode)
	}

	// Availability no longer offers 14:00.
	_, out = doReq(t, http.MethodGet, srv.URL+"/portal/api/availability?salon_id=97&service_id=301&date=2026-09-04", nil, "test-key")
	for _, s := range out["slots"].([]interface{}) {
		if s.(map[string]interface{})["start"] == "2026-09-04T14:00:00" {
			t.Error("booked slot still offered")
		}
	}

	// Reschedule, then cancel.
	resp, out = doReq(t, http.MethodPost, srv.URL+"/portal/api/bookings/"+itoa(id)+"/reschedule", map[string]string{
		"date": "2026-09-05", "time": "10:00",
	}, "test-key")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reschedule status = %d", resp.StatusCode)
	}
	if got := out["booking"].(map[string]interface{})["date"]; got != "2026-09-05" {
		t.Errorf("rescheduled date = %v", got)
	}

	resp, _ = doReq(t, http.MethodPost, srv.URL+"/portal/api/bookings/"+itoa(id)+"/cancel", nil, "test-key")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d", resp.StatusCode)
	}

	resp, _ = doReq(t, http.MethodPost, srv.URL+"/portal/api/bookings/"+itoa(id)+"/cancel", nil, "test-key")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second cancel status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlerCreateResolvesSlotToken(t *testing.T) {
	srv := newTestServer(t)

	resp, out := doReq(t, http.MethodPost, srv.URL+"/portal/api/bookings/new", map[string]interface{}{
		"salon_id": 97, "name": "Anna Svensson",
		"service_id": 301, "time_id": SlotTimeID(301, "10:00"),
		"date": "2026-09-04",
	}, "test-key")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %v", resp.StatusCode, out)
	}
	if got := out["booking"].(map[string]interface{})["time"]; got != "10:00" {
		t.Errorf("time = %v, want 10:00", got)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
