package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

// SMSSender sends a text message to an E.164 number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioSender sends SMS through Twilio.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *logging.Logger
}

// NewTwilioSender creates a Twilio SMS sender. Returns an error when the
// credentials or sender number are missing.
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("notify: twilio account SID and auth token must be provided")
	}
	if from == "" {
		return nil, fmt.Errorf("notify: twilio sender number must be provided")
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from, logger: logger}, nil
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("notify: twilio send to %s: %w", to, err)
	}
	t.logger.Info("sms sent", "to", to)
	return nil
}

// MockSMSSender records messages instead of sending them.
type MockSMSSender struct {
	mu     sync.Mutex
	logger *logging.Logger
	sent   []MockSMS
}

// MockSMS is one recorded message.
type MockSMS struct {
	To   string
	Body string
}

// NewMockSMSSender creates a recording SMS sender for development and tests.
func NewMockSMSSender(logger *logging.Logger) *MockSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &MockSMSSender{logger: logger}
}

func (m *MockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, MockSMS{To: to, Body: body})
	m.mu.Unlock()
	m.logger.Info("sms (mock)", "to", to)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockSMSSender) Sent() []MockSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockSMS, len(m.sent))
	copy(out, m.sent)
	return out
}
