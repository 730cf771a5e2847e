package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

const portalTimeout = 10 * time.Second

// PortalClient talks to the reception portal's REST API. The portal owns the
// bookings database; this adapter is used when the dialog service and the
// portal run as separate processes.
type PortalClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// PortalOption configures a PortalClient.
type PortalOption func(*PortalClient)

// WithPortalHTTPClient overrides the HTTP client, mainly for tests.
func WithPortalHTTPClient(hc *http.Client) PortalOption {
	return func(c *PortalClient) {
		c.httpClient = hc
	}
}

// NewPortalClient creates a portal-backed adapter.
func NewPortalClient(baseURL, apiKey string, logger *logging.Logger, opts ...PortalOption) *PortalClient {
	c := &PortalClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: portalTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PortalClient) Name() string { return "portal" }

func (c *PortalClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("portal: marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("portal: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Portal-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("portal: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("portal: read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrTimeNotAvailable
	default:
		return fmt.Errorf("portal: %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("portal: decode response: %w", err)
		}
	}
	return nil
}

func (c *PortalClient) ListServices(ctx context.Context, salonID int) ([]Service, error) {
	var out struct {
		Services []Service `json:"services"`
	}
	path := fmt.Sprintf("/portal/api/services?salon_id=%d", salonID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

func (c *PortalClient) CheckAvailability(ctx context.Context, salonID, serviceID int, dateISO string) ([]Slot, error) {
	var out struct {
		Slots []Slot `json:"slots"`
	}
	path := fmt.Sprintf("/portal/api/availability?salon_id=%d&service_id=%d&date=%s",
		salonID, serviceID, url.QueryEscape(dateISO))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

// portalBookingRequest mirrors the portal's booking creation payload.
type portalBookingRequest struct {
	SalonID   int    `json:"salon_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	ServiceID int    `json:"service_id"`
	Treatment string `json:"treatment"`
	TimeID    int64  `json:"time_id,omitempty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes,omitempty"`
}

func (c *PortalClient) CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error) {
	body := portalBookingRequest{
		SalonID:   req.SalonID,
		Name:      req.Customer.Name,
		Email:     req.Customer.Email,
		Phone:     req.Customer.Phone,
		ServiceID: req.ServiceID,
		Treatment: req.ServiceName,
		TimeID:    req.TimeID,
		Date:      req.Date,
		Time:      req.Time,
		Notes:     req.Notes,
	}
	var out struct {
		Booking Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/portal/api/bookings/new", body, &out); err != nil {
		return nil, err
	}
	c.logger.Info("portal booking created", "booking_id", out.Booking.ID, "salon_id", req.SalonID)
	return &out.Booking, nil
}

func (c *PortalClient) CancelBooking(ctx context.Context, salonID int, bookingID int64) (*Booking, error) {
	var out struct {
		Booking Booking `json:"booking"`
	}
	path := fmt.Sprintf("/portal/api/bookings/%d/cancel", bookingID)
	if err := c.do(ctx, http.MethodPost, path, map[string]int{"salon_id": salonID}, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *PortalClient) GetBookings(ctx context.Context, customerID string) ([]Booking, error) {
	var out struct {
		Bookings []Booking `json:"bookings"`
	}
	path := "/portal/api/bookings?customer=" + url.QueryEscape(customerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}
