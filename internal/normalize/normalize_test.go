package normalize

import "testing"

func TestNormalizeSpokenEmail(t *testing.T) {
	got := Normalize("anna snabela gmail punkt com")
	if got != "anna@gmail.com" {
		t.Fatalf("expected anna@gmail.com, got %q", got)
	}
}

func TestNormalizeTable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace collapsed", "  boka   en   tid ", "boka 1 tid"},
		{"disfluencies dropped", "eh jag öh vill boka", "jag vill boka"},
		{"confirmation words kept", "ja tack", "ja tack"},
		{"at word becomes symbol", "anna at gmail punkt com", "anna@gmail.com"},
		{"dot kom fixed", "anna snabela gmail punkt kom", "anna@gmail.com"},
		{"digit run collapsed", "noll sju tre ett två tre fyra fem sex sju", "0731234567"},
		{"short digit run kept apart", "tre fyra fem", "3 4 5"},
		{"clock pair", "klockan 10 30", "klockan 10:30"},
		{"mixed digits and words", "mitt nummer är noll sju noll ett två tre fyra fem sex", "mitt nummer är 070123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"anna snabela gmail punkt com",
		"noll sju tre ett två tre fyra fem sex sju",
		"klockan 10 30",
		"jag heter Anna Svensson",
		"eh boka typ en tid imorgon",
		"boka klippning nästa fredag kl 14:30",
		"",
		"ja, avboka 501484 tack",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestEmailCandidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spelled with snabela", "anna snabela gmail punkt com", "anna@gmail.com"},
		{"mis-heard snabbel", "anna snabbela hotmail punkt com", "anna@hotmail.com"},
		{"phonetic letters", "a som adam b som bertil snabela gmail punkt com", "ab@gmail.com"},
		{"glued gmail", "anna snabela g mail punkt com", "anna@gmail.com"},
		{"diacritics stripped", "åsa snabela gmail punkt com", "asa@gmail.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmailCandidate(tt.in); got != tt.want {
				t.Errorf("EmailCandidate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractEmail(t *testing.T) {
	if got := ExtractEmail("skicka till anna@gmail.com, tack"); got != "anna@gmail.com" {
		t.Errorf("expected trailing comma stripped, got %q", got)
	}
	if got := ExtractEmail("det är anna snabela gmail punkt com"); got != "anna@gmail.com" {
		t.Errorf("expected spoken form recovered, got %q", got)
	}
	if got := ExtractEmail("jag vill boka en tid"); got != "" {
		t.Errorf("expected no email, got %q", got)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"anna@gmail.com", "a.b-c+d@sub.domain.se"}
	invalid := []string{"", "anna@gmail", "anna gmail.com", "@gmail.com", "anna@.se"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}
