package verify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DemoVerifier simulates BankID for demos and tests. Every order completes
// successfully once the configured delay has passed.
type DemoVerifier struct {
	mu     sync.Mutex
	orders map[string]demoOrder
	delay  time.Duration
}

type demoOrder struct {
	personalNumber string
	startedAt      time.Time
	cancelled      bool
}

// NewDemoVerifier creates a demo verifier whose orders complete after delay.
func NewDemoVerifier(delay time.Duration) *DemoVerifier {
	if delay < 0 {
		delay = 0
	}
	return &DemoVerifier{
		orders: make(map[string]demoOrder),
		delay:  delay,
	}
}

func (d *DemoVerifier) Start(ctx context.Context, personalNumber, endUserIP string) (string, error) {
	ref := uuid.NewString()
	d.mu.Lock()
	d.orders[ref] = demoOrder{personalNumber: personalNumber, startedAt: time.Now()}
	d.mu.Unlock()
	return ref, nil
}

func (d *DemoVerifier) Collect(ctx context.Context, orderRef string) (*Status, error) {
	d.mu.Lock()
	order, ok := d.orders[orderRef]
	d.mu.Unlock()
	if !ok {
		return nil, ErrUnknownOrder
	}
	if order.cancelled {
		return &Status{State: StateFailed, HintCode: "userCancel"}, nil
	}
	if time.Since(order.startedAt) < d.delay {
		return &Status{State: StatePending, HintCode: "outstandingTransaction"}, nil
	}
	return &Status{
		State:          StateComplete,
		Name:           "Demo Användare",
		PersonalNumber: order.personalNumber,
	}, nil
}

func (d *DemoVerifier) Cancel(ctx context.Context, orderRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	order, ok := d.orders[orderRef]
	if !ok {
		return ErrUnknownOrder
	}
	order.cancelled = true
	d.orders[orderRef] = order
	return nil
}
