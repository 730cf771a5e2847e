package extract

import (
	"testing"
	"time"
)

func TestDateRelative(t *testing.T) {
	// A Friday.
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if base.Weekday() != time.Friday {
		t.Fatal("test base must be a Friday")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"idag", "2026-08-28"},
		{"imorgon", "2026-08-29"},
		{"i morgon", "2026-08-29"},
		{"i övermorgon", "2026-08-30"},
		{"nästa fredag", "2026-09-04"}, // same weekday resolves one week out
		{"nästa måndag", "2026-08-31"},
		{"nästa tisdag", "2026-09-01"},
		{"boka 2026-09-15 tack", "2026-09-15"},
		{"vilken dag som helst", ""},
	}
	for _, tt := range tests {
		if got := Date(tt.in, base); got != tt.want {
			t.Errorf("Date(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"klockan 14:30", "14:30"},
		{"14.30", "14:30"},
		{"halv tre", "14:30"},
		{"halv 3", "14:30"},
		{"kvart i tre", "14:45"},
		{"kvart över två", "14:15"},
		{"halv två", "13:30"},
		{"kvart i två", "13:45"},
		{"jag vill komma kvart över två, gärna imorgon", "14:15"},
		{"halv åtta", "19:30"},
		{"halv tio", "09:30"},
		{"halv ett", "12:30"},
		{"vid lunch", "12:00"},
		{"på förmiddagen", "10:00"},
		{"på eftermiddagen", "15:00"},
		{"klockan 15", "15:00"},
		{"kl 9", "09:00"},
		{"14", "14:00"},
		{"boka nästa vecka", ""},
		{"mitt nummer är 0731234567", ""},
	}
	for _, tt := range tests {
		if got := TimeOfDay(tt.in); got != tt.want {
			t.Errorf("TimeOfDay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchService(t *testing.T) {
	// Specific keywords come before the generic "klipp" fallback entry.
	catalog := []ServiceEntry{
		{ID: 301, Name: "Klippning kort hår", Keywords: []string{"kort"}},
		{ID: 298, Name: "Klippning rek. Långt och tjockt hår", Keywords: []string{"lång", "tjock", "klipp"}},
	}

	if entry, ok := MatchService("jag vill klippa mig", catalog); !ok || entry.ID != 298 {
		t.Errorf("expected 298, got %+v ok=%v", entry, ok)
	}
	if entry, ok := MatchService("kort hår tack", catalog); !ok || entry.ID != 301 {
		t.Errorf("expected 301, got %+v ok=%v", entry, ok)
	}
	if entry, ok := MatchService("klippning kort", catalog); !ok || entry.ID != 301 {
		t.Errorf("keyword for kort must win, got %+v ok=%v", entry, ok)
	}
	if _, ok := MatchService("jag vill boka massage", catalog); ok {
		t.Error("unknown service must miss so the slot is re-prompted")
	}
}
