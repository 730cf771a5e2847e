package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Outbox item statuses.
const (
	outboxPending = "pending"
	outboxSent    = "sent"
	outboxFailed  = "failed"
)

// ErrOutboxEmpty is returned by ClaimNext when nothing is due.
var ErrOutboxEmpty = errors.New("notify: outbox empty")

// OutboxItem is one queued email.
type OutboxItem struct {
	ID        int64
	To        string
	ToName    string
	Subject   string
	Body      string
	IdemKey   string
	Status    string
	Attempts  int
	LastError string
}

// Outbox is a SQLite-backed email queue. Messages survive restarts and are
// retried with exponential backoff until sent or the attempt cap is hit.
type Outbox struct {
	db *sql.DB
}

const outboxSchema = `
CREATE TABLE IF NOT EXISTS email_outbox (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    recipient       TEXT NOT NULL,
    recipient_name  TEXT NOT NULL DEFAULT '',
    subject         TEXT NOT NULL,
    body            TEXT NOT NULL,
    idem_key        TEXT,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempts        INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TEXT NOT NULL,
    last_error      TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL,
    sent_at         TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_outbox_idem ON email_outbox(idem_key) WHERE idem_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_outbox_due ON email_outbox(status, next_attempt_at);
`

// NewOutbox opens (and if needed creates) the outbox database at path.
func NewOutbox(path string) (*Outbox, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("notify: open outbox db: %w", err)
	}
	if _, err := db.Exec(outboxSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("notify: init outbox schema: %w", err)
	}
	return &Outbox{db: db}, nil
}

// Close closes the underlying database.
func (o *Outbox) Close() error { return o.db.Close() }

// Enqueue queues an email. A non-empty idemKey deduplicates: queueing the
// same key twice is a no-op and returns false.
func (o *Outbox) Enqueue(ctx context.Context, msg EmailMessage, idemKey string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	var key interface{}
	if idemKey != "" {
		key = idemKey
	}
	res, err := o.db.ExecContext(ctx, `
		INSERT INTO email_outbox (recipient, recipient_name, subject, body, idem_key, next_attempt_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idem_key) WHERE idem_key IS NOT NULL DO NOTHING`,
		msg.To, msg.ToName, msg.Subject, msg.Body, key, now, now)
	if err != nil {
		return false, fmt.Errorf("notify: enqueue email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("notify: enqueue email: %w", err)
	}
	return n > 0, nil
}

// ClaimNext returns the oldest pending item that is due. The item stays
// pending until MarkSent or MarkError; the outbox assumes a single worker.
func (o *Outbox) ClaimNext(ctx context.Context) (*OutboxItem, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	row := o.db.QueryRowContext(ctx, `
		SELECT id, recipient, recipient_name, subject, body, COALESCE(idem_key, ''), status, attempts, last_error
		FROM email_outbox
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY id LIMIT 1`, outboxPending, now)

	var it OutboxItem
	err := row.Scan(&it.ID, &it.To, &it.ToName, &it.Subject, &it.Body, &it.IdemKey, &it.Status, &it.Attempts, &it.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOutboxEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("notify: claim outbox item: %w", err)
	}
	return &it, nil
}

// MarkSent records a successful delivery.
func (o *Outbox) MarkSent(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := o.db.ExecContext(ctx,
		`UPDATE email_outbox SET status = ?, sent_at = ? WHERE id = ?`,
		outboxSent, now, id)
	if err != nil {
		return fmt.Errorf("notify: mark sent: %w", err)
	}
	return nil
}

// MarkError records a failed attempt. The item is rescheduled with capped
// exponential backoff, or marked failed once maxAttempts is reached.
func (o *Outbox) MarkError(ctx context.Context, id int64, sendErr error, maxAttempts int) error {
	var attempts int
	if err := o.db.QueryRowContext(ctx,
		`SELECT attempts FROM email_outbox WHERE id = ?`, id).Scan(&attempts); err != nil {
		return fmt.Errorf("notify: load attempts: %w", err)
	}
	attempts++

	status := outboxPending
	if attempts >= maxAttempts {
		status = outboxFailed
	}
	next := time.Now().UTC().Add(retryDelay(attempts)).Format(time.RFC3339)

	_, err := o.db.ExecContext(ctx, `
		UPDATE email_outbox SET status = ?, attempts = ?, next_attempt_at = ?, last_error = ?
		WHERE id = ?`,
		status, attempts, next, sendErr.Error(), id)
	if err != nil {
		return fmt.Errorf("notify: mark error: %w", err)
	}
	return nil
}

// PendingCount returns how many items still await delivery.
func (o *Outbox) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := o.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_outbox WHERE status = ?`, outboxPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("notify: pending count: %w", err)
	}
	return n, nil
}

// retryDelay is 2^(attempt-1) seconds capped at 5 minutes, plus up to one
// second of jitter.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	secs := 1 << (attempt - 1)
	if secs > 300 || secs <= 0 {
		secs = 300
	}
	return time.Duration(secs)*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
}
