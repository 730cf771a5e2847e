package notify

import (
	"context"
	"errors"
	"time"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

// OutboxWorker drains the email outbox on an interval.
type OutboxWorker struct {
	outbox      *Outbox
	sender      EmailSender
	logger      *logging.Logger
	interval    time.Duration
	maxAttempts int
	batchSize   int
	onSent      func()
	onFailed    func()
}

// NewOutboxWorker creates a worker over the given outbox and sender.
func NewOutboxWorker(outbox *Outbox, sender EmailSender, logger *logging.Logger) *OutboxWorker {
	if logger == nil {
		logger = logging.Default()
	}
	return &OutboxWorker{
		outbox:      outbox,
		sender:      sender,
		logger:      logger,
		interval:    2 * time.Second,
		maxAttempts: 10,
		batchSize:   25,
	}
}

func (w *OutboxWorker) WithInterval(d time.Duration) *OutboxWorker {
	if d > 0 {
		w.interval = d
	}
	return w
}

func (w *OutboxWorker) WithMaxAttempts(n int) *OutboxWorker {
	if n > 0 {
		w.maxAttempts = n
	}
	return w
}

func (w *OutboxWorker) WithBatchSize(n int) *OutboxWorker {
	if n > 0 {
		w.batchSize = n
	}
	return w
}

// WithCounters installs callbacks invoked after a delivery succeeds or an
// item is given up on. Used to feed metrics.
func (w *OutboxWorker) WithCounters(onSent, onFailed func()) *OutboxWorker {
	w.onSent = onSent
	w.onFailed = onFailed
	return w
}

// Run drains until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.Drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain sends due items until the outbox is empty or the batch cap is hit.
func (w *OutboxWorker) Drain(ctx context.Context) {
	if w.outbox == nil || w.sender == nil {
		return
	}
	for i := 0; i < w.batchSize; i++ {
		item, err := w.outbox.ClaimNext(ctx)
		if errors.Is(err, ErrOutboxEmpty) {
			return
		}
		if err != nil {
			w.logger.Error("outbox claim failed", "error", err)
			return
		}

		sendErr := w.sender.Send(ctx, EmailMessage{
			To:      item.To,
			ToName:  item.ToName,
			Subject: item.Subject,
			Body:    item.Body,
		})
		if sendErr == nil {
			if err := w.outbox.MarkSent(ctx, item.ID); err != nil {
				w.logger.Error("outbox mark sent failed", "error", err, "item_id", item.ID)
			}
			if w.onSent != nil {
				w.onSent()
			}
			continue
		}

		w.logger.Warn("outbox send failed", "error", sendErr, "item_id", item.ID, "attempts", item.Attempts+1)
		if err := w.outbox.MarkError(ctx, item.ID, sendErr, w.maxAttempts); err != nil {
			w.logger.Error("outbox mark error failed", "error", err, "item_id", item.ID)
		}
		if item.Attempts+1 >= w.maxAttempts {
			w.logger.Error("outbox item abandoned", "item_id", item.ID, "recipient", item.To)
			if w.onFailed != nil {
				w.onFailed()
			}
		}
	}
}
