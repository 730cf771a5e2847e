// Package verify handles caller identity verification through BankID. The
// dental vertical requires a completed verification before any booking is
// committed; the hair vertical never uses it.
package verify

import (
	"context"
	"errors"
	"time"
)

// Verification states reported by Collect.
const (
	StatePending  = "pending"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// Common errors.
var (
	ErrUnknownOrder = errors.New("verify: unknown order reference")
	ErrTimeout      = errors.New("verify: verification did not complete in time")
)

// Status is the outcome of one Collect call.
type Status struct {
	State    string
	HintCode string
	// Name is the verified legal name, set once State is complete.
	Name string
	// PersonalNumber is the verified identity number, set once complete.
	PersonalNumber string
}

// Verifier abstracts the identity provider.
type Verifier interface {
	// Start begins verification for a personal number and returns an order
	// reference to poll with Collect.
	Start(ctx context.Context, personalNumber, endUserIP string) (string, error)

	// Collect reports the current state of an order.
	Collect(ctx context.Context, orderRef string) (*Status, error)

	// Cancel aborts a pending order.
	Cancel(ctx context.Context, orderRef string) error
}

// Gate polls a Verifier until an order leaves the pending state. It blocks
// the caller for the whole poll loop, so it suits synchronous verify-and-mark
// paths only; turn-based callers should Collect once per turn instead.
type Gate struct {
	verifier Verifier
	every    time.Duration
	maxPolls int
}

// NewGate creates a poll gate. every is the interval between Collect calls,
// maxPolls bounds how many are made before giving up.
func NewGate(v Verifier, every time.Duration, maxPolls int) *Gate {
	if every <= 0 {
		every = time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 10
	}
	return &Gate{verifier: v, every: every, maxPolls: maxPolls}
}

// WaitForCompletion polls until the order completes, fails, or the poll
// budget runs out. On timeout the order is cancelled and ErrTimeout returned.
func (g *Gate) WaitForCompletion(ctx context.Context, orderRef string) (*Status, error) {
	ticker := time.NewTicker(g.every)
	defer ticker.Stop()

	for i := 0; i < g.maxPolls; i++ {
		st, err := g.verifier.Collect(ctx, orderRef)
		if err != nil {
			return nil, err
		}
		switch st.State {
		case StateComplete, StateFailed:
			return st, nil
		}
		select {
		case <-ctx.Done():
			g.verifier.Cancel(context.WithoutCancel(ctx), orderRef)
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	g.verifier.Cancel(ctx, orderRef)
	return nil, ErrTimeout
}
