package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

func TestPortalClientCreateBooking(t *testing.T) {
	var gotKey string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portal/api/bookings/new" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Portal-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"booking": map[string]interface{}{
				"id": 12345, "salon_id": 97, "date": "2026-09-04", "time": "14:30",
				"service_name": "Klippning kort hår",
			},
		})
	}))
	defer srv.Close()

	c := NewPortalClient(srv.URL, "secret", logging.Default())
	b, err := c.CreateBooking(context.Background(), CreateRequest{
		SalonID:     97,
		Customer:    Customer{Name: "Anna Svensson", Phone: "+46731234567"},
		ServiceID:   301,
		ServiceName: "Klippning kort hår",
		Date:        "2026-09-04",
		Time:        "14:30",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.ID != 12345 {
		t.Errorf("booking ID = %d, want 12345", b.ID)
	}
	if gotKey != "secret" {
		t.Errorf("X-Portal-Key = %q", gotKey)
	}
	if gotBody["name"] != "Anna Svensson" {
		t.Errorf("payload name = %v", gotBody["name"])
	}
	if gotBody["treatment"] != "Klippning kort hår" {
		t.Errorf("payload treatment = %v", gotBody["treatment"])
	}
}

func TestPortalClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"booking not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewPortalClient(srv.URL, "", logging.Default())
	_, err := c.CancelBooking(context.Background(), 97, 99999)
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPortalClientConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"time not available"}`, http.StatusConflict)
	}))
	defer srv.Close()

	c := NewPortalClient(srv.URL, "", logging.Default())
	_, err := c.CreateBooking(context.Background(), CreateRequest{
		SalonID: 97, Date: "2026-09-04", Time: "14:30",
	})
	if err != ErrTimeNotAvailable {
		t.Fatalf("err = %v, want ErrTimeNotAvailable", err)
	}
}

func TestPortalClientListServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("salon_id"); got != "97" {
			t.Errorf("salon_id = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"services": []map[string]interface{}{
				{"id": 301, "name": "Klippning kort hår", "duration_mins": 30},
			},
		})
	}))
	defer srv.Close()

	c := NewPortalClient(srv.URL, "", logging.Default())
	services, err := c.ListServices(context.Background(), 97)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 1 || services[0].ID != 301 {
		t.Fatalf("services = %+v", services)
	}
}
