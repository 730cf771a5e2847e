// Package portal implements the reception portal: a SQLite-backed booking
// registry with an HTTP API used by salon and clinic staff. Each booking row
// is the source of truth for reschedules and cancellations.
package portal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Booking statuses.
const (
	StatusConfirmed   = "confirmed"
	StatusCancelled   = "cancelled"
	StatusRescheduled = "rescheduled"
)

// ErrNotFound is returned when no booking matches the given reference.
var ErrNotFound = errors.New("portal: booking not found")

// Record is one booking row.
type Record struct {
	ID        int64  `json:"id"`
	SalonID   int    `json:"salon_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	ServiceID int    `json:"service_id"`
	Treatment string `json:"treatment"`
	Date      string `json:"date"` // 2006-01-02
	Time      string `json:"time"` // 15:04
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

// Store persists bookings in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    salon_id    INTEGER NOT NULL,
    name        TEXT NOT NULL,
    email       TEXT NOT NULL DEFAULT '',
    phone       TEXT NOT NULL DEFAULT '',
    service_id  INTEGER NOT NULL DEFAULT 0,
    treatment   TEXT NOT NULL DEFAULT '',
    date        TEXT NOT NULL,
    time        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'confirmed',
    notes       TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookings_salon_date ON bookings(salon_id, date);
CREATE INDEX IF NOT EXISTS idx_bookings_contact ON bookings(email, phone);
`

// NewStore opens (and if needed creates) the bookings database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("portal: open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("portal: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Insert stores a confirmed booking and returns it with its assigned ID.
func (s *Store) Insert(ctx context.Context, r Record) (*Record, error) {
	if r.Status == "" {
		r.Status = StatusConfirmed
	}
	r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (salon_id, name, email, phone, service_id, treatment, date, time, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SalonID, r.Name, r.Email, r.Phone, r.ServiceID, r.Treatment, r.Date, r.Time, r.Status, r.Notes, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("portal: insert booking: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("portal: booking id: %w", err)
	}
	return &r, nil
}

// Get fetches one booking by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, salon_id, name, email, phone, service_id, treatment, date, time, status, notes, created_at
		FROM bookings WHERE id = ?`, id)
	return scanRecord(row)
}

// List returns bookings newest first. salonID 0 means all salons. If customer
// is non-empty the result is filtered to rows matching it as email or phone.
func (s *Store) List(ctx context.Context, salonID int, customer string) ([]Record, error) {
	query := `
		SELECT id, salon_id, name, email, phone, service_id, treatment, date, time, status, notes, created_at
		FROM bookings WHERE (? = 0 OR salon_id = ?)`
	args := []interface{}{salonID, salonID}
	if customer != "" {
		query += ` AND (email = ? OR phone = ?)`
		args = append(args, customer, customer)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("portal: list bookings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// BookedTimes returns the HH:MM times already taken for a salon on a date,
// excluding cancelled bookings.
func (s *Store) BookedTimes(ctx context.Context, salonID int, date string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time FROM bookings WHERE salon_id = ? AND date = ? AND status != ?`,
		salonID, date, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("portal: booked times: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("portal: scan time: %w", err)
		}
		taken[t] = true
	}
	return taken, rows.Err()
}

// Cancel marks a booking cancelled and returns the updated row.
func (s *Store) Cancel(ctx context.Context, id int64) (*Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status != ?`,
		StatusCancelled, id, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("portal: cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("portal: cancel booking: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Reschedule moves a booking to a new date and time.
func (s *Store) Reschedule(ctx context.Context, id int64, date, timeHHMM string) (*Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET date = ?, time = ?, status = ? WHERE id = ? AND status != ?`,
		date, timeHHMM, StatusRescheduled, id, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("portal: reschedule booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("portal: reschedule booking: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.SalonID, &r.Name, &r.Email, &r.Phone, &r.ServiceID,
		&r.Treatment, &r.Date, &r.Time, &r.Status, &r.Notes, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("portal: scan booking: %w", err)
	}
	return &r, nil
}
