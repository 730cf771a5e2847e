package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := NewOutbox(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("NewOutbox: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func testMsg(to string) EmailMessage {
	return EmailMessage{
		To:      to,
		ToName:  "Anna Svensson",
		Subject: "Bokningsbekräftelse 500001",
		Body:    "Din bokning är bekräftad.",
	}
}

func TestOutboxEnqueueAndClaim(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	queued, err := o.Enqueue(ctx, testMsg("anna@gmail.com"), "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !queued {
		t.Fatal("expected item queued")
	}

	item, err := o.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if item.To != "anna@gmail.com" || item.Subject != "Bokningsbekräftelse 500001" {
		t.Errorf("item = %+v", item)
	}

	if err := o.MarkSent(ctx, item.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if _, err := o.ClaimNext(ctx); !errors.Is(err, ErrOutboxEmpty) {
		t.Fatalf("err after send = %v, want ErrOutboxEmpty", err)
	}
}

func TestOutboxIdempotencyKey(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	queued, err := o.Enqueue(ctx, testMsg("anna@gmail.com"), "booking:500001:anna@gmail.com")
	if err != nil || !queued {
		t.Fatalf("first enqueue: queued=%v err=%v", queued, err)
	}
	queued, err = o.Enqueue(ctx, testMsg("anna@gmail.com"), "booking:500001:anna@gmail.com")
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if queued {
		t.Fatal("duplicate idem key should not queue")
	}

	n, err := o.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}

	// Distinct keys still queue.
	queued, _ = o.Enqueue(ctx, testMsg("erik@example.com"), "booking:500002:erik@example.com")
	if !queued {
		t.Fatal("different idem key should queue")
	}
}

func TestOutboxRetryBackoff(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	o.Enqueue(ctx, testMsg("anna@gmail.com"), "")
	item, err := o.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	if err := o.MarkError(ctx, item.ID, errors.New("sendgrid status 500"), 10); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	// Backoff pushed the item into the future; nothing is due now.
	if _, err := o.ClaimNext(ctx); !errors.Is(err, ErrOutboxEmpty) {
		t.Fatalf("err while backing off = %v, want ErrOutboxEmpty", err)
	}

	n, _ := o.PendingCount(ctx)
	if n != 1 {
		t.Errorf("pending = %d, want 1 (still retryable)", n)
	}
}

func TestOutboxGivesUpAfterMaxAttempts(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	o.Enqueue(ctx, testMsg("anna@gmail.com"), "")
	item, _ := o.ClaimNext(ctx)

	if err := o.MarkError(ctx, item.ID, errors.New("boom"), 1); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	n, _ := o.PendingCount(ctx)
	if n != 0 {
		t.Errorf("pending = %d, want 0 after giving up", n)
	}
}

func TestRetryDelayCapped(t *testing.T) {
	for attempt := 1; attempt <= 20; attempt++ {
		d := retryDelay(attempt)
		if d < 0 || d > 301*1e9 {
			t.Errorf("retryDelay(%d) = %v out of range", attempt, d)
		}
	}
}

type failingSender struct {
	failures int
	sent     []EmailMessage
}

func (f *failingSender) Send(ctx context.Context, msg EmailMessage) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("provider unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestOutboxWorkerDrains(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	o.Enqueue(ctx, testMsg("anna@gmail.com"), "")
	o.Enqueue(ctx, testMsg("erik@example.com"), "")

	sender := &failingSender{}
	w := NewOutboxWorker(o, sender, logging.Default())
	w.Drain(ctx)

	if len(sender.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(sender.sent))
	}
	n, _ := o.PendingCount(ctx)
	if n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestOutboxWorkerLeavesFailedForRetry(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	o.Enqueue(ctx, testMsg("anna@gmail.com"), "")

	sender := &failingSender{failures: 1}
	w := NewOutboxWorker(o, sender, logging.Default()).WithMaxAttempts(5)
	w.Drain(ctx)

	if len(sender.sent) != 0 {
		t.Fatal("nothing should have been sent")
	}
	// Item stays pending for the next cycle.
	n, _ := o.PendingCount(ctx)
	if n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
}

func TestConfirmationEmailContent(t *testing.T) {
	msg := ConfirmationEmail(BookingDetails{
		BookingID: 500001,
		Name:      "Anna Svensson",
		Email:     "anna@gmail.com",
		Service:   "Klippning kort hår",
		Date:      "2026-09-04",
		Time:      "14:30",
		Business:  "Salong Saxen",
	})
	if msg.To != "anna@gmail.com" {
		t.Errorf("to = %q", msg.To)
	}
	if msg.Subject != "Bokningsbekräftelse 500001" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"500001", "Klippning kort hår", "2026-09-04", "14:30", "Salong Saxen"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}
