package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("Anna Svensson", "anna@gmail.com", "2026-09-04", "14:30", "Klippning kort hår")
	b := Fingerprint("anna svensson", "ANNA@GMAIL.COM", "2026-09-04", "14:30", "klippning kort hår")
	if a != b {
		t.Error("fingerprint should be case-insensitive")
	}

	c := Fingerprint("Anna Svensson", "anna@gmail.com", "2026-09-04", "15:30", "Klippning kort hår")
	if a == c {
		t.Error("different time must give a different fingerprint")
	}
}

func TestMemoryFingerprintsWindow(t *testing.T) {
	fps := NewMemoryFingerprints(30 * time.Millisecond)
	ctx := context.Background()
	fp := Fingerprint("Anna", "anna@gmail.com", "2026-09-04", "14:30", "Klippning")

	if _, seen, _ := fps.Seen(ctx, fp); seen {
		t.Fatal("unseen fingerprint reported seen")
	}
	if err := fps.Record(ctx, fp, 500001); err != nil {
		t.Fatalf("Record: %v", err)
	}
	id, seen, err := fps.Seen(ctx, fp)
	if err != nil || !seen || id != 500001 {
		t.Fatalf("Seen = (%d, %v, %v)", id, seen, err)
	}

	time.Sleep(40 * time.Millisecond)
	if _, seen, _ := fps.Seen(ctx, fp); seen {
		t.Error("fingerprint should expire with the window")
	}
}

func TestRedisFingerprints(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fps := NewRedisFingerprints(client, 45*time.Second)
	ctx := context.Background()
	fp := Fingerprint("Anna", "anna@gmail.com", "2026-09-04", "14:30", "Klippning")

	if err := fps.Record(ctx, fp, 500002); err != nil {
		t.Fatalf("Record: %v", err)
	}
	id, seen, err := fps.Seen(ctx, fp)
	if err != nil || !seen || id != 500002 {
		t.Fatalf("Seen = (%d, %v, %v)", id, seen, err)
	}

	mr.FastForward(46 * time.Second)
	if _, seen, _ := fps.Seen(ctx, fp); seen {
		t.Error("fingerprint should expire after the window")
	}
}
