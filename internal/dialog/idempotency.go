package dialog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fingerprint derives a stable key for a booking attempt. Two attempts with
// the same customer, schedule and treatment inside the dedup window are the
// same booking, regardless of how the caller phrased them.
func Fingerprint(name, email, date, timeHHMM, treatment string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.Join(
		[]string{name, email, date, timeHHMM, treatment}, "|"))))
	return hex.EncodeToString(h[:])
}

// FingerprintStore remembers recently committed bookings so a repeated
// confirmation does not create a second one.
type FingerprintStore interface {
	// Seen returns the booking ID recorded for fp, if any.
	Seen(ctx context.Context, fp string) (int64, bool, error)

	// Record stores fp with its booking ID for the dedup window.
	Record(ctx context.Context, fp string, bookingID int64) error
}

// RedisFingerprints stores fingerprints in redis with the window as TTL.
type RedisFingerprints struct {
	redis  *redis.Client
	window time.Duration
}

// NewRedisFingerprints creates a redis-backed fingerprint store.
func NewRedisFingerprints(client *redis.Client, window time.Duration) *RedisFingerprints {
	if client == nil {
		panic("dialog: redis client cannot be nil")
	}
	if window <= 0 {
		window = 45 * time.Second
	}
	return &RedisFingerprints{redis: client, window: window}
}

func fingerprintKey(fp string) string {
	return fmt.Sprintf("booking_fp:%s", fp)
}

func (r *RedisFingerprints) Seen(ctx context.Context, fp string) (int64, bool, error) {
	id, err := r.redis.Get(ctx, fingerprintKey(fp)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("dialog: fingerprint lookup: %w", err)
	}
	return id, true, nil
}

func (r *RedisFingerprints) Record(ctx context.Context, fp string, bookingID int64) error {
	if err := r.redis.Set(ctx, fingerprintKey(fp), bookingID, r.window).Err(); err != nil {
		return fmt.Errorf("dialog: fingerprint record: %w", err)
	}
	return nil
}

// MemoryFingerprints is the in-process equivalent for tests and demos.
type MemoryFingerprints struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]fpEntry
}

type fpEntry struct {
	bookingID int64
	at        time.Time
}

// NewMemoryFingerprints creates an in-memory fingerprint store.
func NewMemoryFingerprints(window time.Duration) *MemoryFingerprints {
	if window <= 0 {
		window = 45 * time.Second
	}
	return &MemoryFingerprints{window: window, seen: make(map[string]fpEntry)}
}

func (m *MemoryFingerprints) Seen(ctx context.Context, fp string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.seen[fp]
	if !ok || time.Since(e.at) > m.window {
		delete(m.seen, fp)
		return 0, false, nil
	}
	return e.bookingID, true, nil
}

func (m *MemoryFingerprints) Record(ctx context.Context, fp string, bookingID int64) error {
	m.mu.Lock()
	m.seen[fp] = fpEntry{bookingID: bookingID, at: time.Now()}
	m.mu.Unlock()
	return nil
}
