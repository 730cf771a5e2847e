package router

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nordicvoice/voicebooking/internal/booking"
	"github.com/nordicvoice/voicebooking/internal/dialog"
	"github.com/nordicvoice/voicebooking/internal/portal"
	"github.com/nordicvoice/voicebooking/internal/session"
	"github.com/nordicvoice/voicebooking/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.Default()

	adapter := booking.NewMockAdapter([]booking.Service{{ID: 301, Name: "Klippning kort hår"}})
	sessions := session.NewMemoryStore()
	engine := dialog.NewEngine(sessions, adapter, dialog.NewMemoryFingerprints(45*time.Second), logger)

	store, err := portal.NewStore(filepath.Join(t.TempDir(), "bookings.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	return New(&Config{
		Logger:         logger,
		DialogHandler:  dialog.NewHandler(engine, adapter, sessions, logger),
		PortalHandler:  portal.NewHandler(store, nil, "portal-key", logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health body = %s", rec.Body.String())
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestRouterDialogMounted(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"vertical":"hair"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("sessions status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRouterPortalGuarded(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/api/services", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("portal without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/portal/api/services", nil)
	req.Header.Set("X-Portal-Key", "portal-key")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("portal with key status = %d", rec.Code)
	}
}
