// Package extract contains the per-slot heuristic parsers. Each function is
// pure and returns the zero value when nothing plausible is found; callers
// only invoke a parser while its slot is still unset, so a miss is not an
// error.
package extract

import (
	"regexp"
	"strings"

	"github.com/nordicvoice/voicebooking/internal/normalize"
)

var (
	reNameIntro   = regexp.MustCompile(`(?i)\b(?:jag heter|mitt namn är|my name is)\s+([^\d,.!?]+)`)
	reNameCapital = regexp.MustCompile(`\b[A-ZÅÄÖ][a-zåäöé]+(?:\s+[A-ZÅÄÖ][a-zåäöé]+)?`)
	rePhone       = regexp.MustCompile(`(?:00\s*46|\+?46|0)\s*(?:\d[\s\-]*){8,10}`)
	reNonDigit    = regexp.MustCompile(`\D`)
	reBookingRef  = regexp.MustCompile(`\b(\d{3,10})\b`)
	rePersonalNum = regexp.MustCompile(`\b(\d{6,8})[-+]?(\d{4})\b|\b\d{10}\b|\b\d{12}\b`)
	reWordSplit   = regexp.MustCompile(`[^\pL\pN@.+\-]+`)
)

// Words that start sentences but never names; keeps the capitalized-word
// fallback from eating "Jag vill boka".
var nameStopwords = map[string]struct{}{
	"jag": {}, "hej": {}, "boka": {}, "vill": {}, "kan": {}, "det": {},
	"du": {}, "ni": {}, "jo": {}, "tack": {}, "min": {}, "mitt": {},
}

// Name pulls a person name out of the raw (case-preserving) utterance.
// Introductory phrases win; otherwise the first run of capitalized words.
func Name(text string) string {
	if m := reNameIntro.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		// Cut trailing clauses: "jag heter anna och vill boka".
		for _, sep := range []string{" och ", " men ", " så "} {
			if i := strings.Index(strings.ToLower(name), sep); i >= 0 {
				name = name[:i]
			}
		}
		return titleCase(name)
	}
	for _, m := range reNameCapital.FindAllString(text, -1) {
		first := strings.ToLower(strings.Fields(m)[0])
		if _, skip := nameStopwords[first]; skip {
			continue
		}
		return strings.TrimSpace(m)
	}
	return ""
}

// titleCase uppercases the first rune of every word, lowercasing the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Phone finds a Swedish phone number and normalizes it to E.164 (+46...).
// A tolerant pattern is tried first; the fallback strips everything but
// digits and infers the national prefix from length and leading digits.
func Phone(text string) string {
	if m := rePhone.FindString(text); m != "" {
		return canonicalPhone(reNonDigit.ReplaceAllString(m, ""))
	}
	digits := reNonDigit.ReplaceAllString(text, "")
	if len(digits) < 9 {
		return ""
	}
	return canonicalPhone(digits)
}

func canonicalPhone(digits string) string {
	switch {
	case strings.HasPrefix(digits, "0046"):
		return "+46" + digits[4:]
	case strings.HasPrefix(digits, "46"):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+46" + digits[1:]
	case len(digits) >= 9:
		return "+46" + digits[len(digits)-9:]
	}
	return ""
}

// Email runs the spoken-form recovery pipeline and returns the first valid
// address, or empty.
func Email(text string) string {
	return normalize.ExtractEmail(text)
}

// BookingRef picks the first standalone 3-10 digit run out of the utterance.
func BookingRef(text string) string {
	if m := reBookingRef.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// PersonalNumber finds a 10- or 12-digit Swedish personnummer and returns the
// 12-digit form. For 10-digit input the century is a crude guess: birth years
// starting 6-9 are assumed 19xx, the rest 20xx.
func PersonalNumber(text string) string {
	m := rePersonalNum.FindString(text)
	if m == "" {
		return ""
	}
	digits := reNonDigit.ReplaceAllString(m, "")
	switch len(digits) {
	case 12:
		return digits
	case 10:
		if digits[0] >= '6' && digits[0] <= '9' {
			return "19" + digits
		}
		return "20" + digits
	}
	return ""
}

var ordinalWords = map[string]int{
	"första": 0, "andra": 1, "tredje": 2, "fjärde": 3, "femte": 4, "sjätte": 5,
}

// OrdinalPick maps "första/andra/..." to an index into a list of n offered
// slots. "Vilken som helst" and friends pick the first. Returns -1 on a miss.
func OrdinalPick(text string, n int) int {
	if n == 0 {
		return -1
	}
	t := strings.ToLower(text)
	for word, idx := range ordinalWords {
		if strings.Contains(t, word) && idx < n {
			return idx
		}
	}
	if strings.Contains(t, "vilken som helst") ||
		strings.Contains(t, "spelar ingen roll") ||
		strings.Contains(t, "ta första") {
		return 0
	}
	return -1
}

var yesWords = map[string]struct{}{
	"ja": {}, "japp": {}, "jajamen": {}, "okej": {}, "ok": {}, "kör": {},
	"stämmer": {}, "boka": {}, "yes": {}, "absolut": {}, "gärna": {},
}

var noWords = map[string]struct{}{
	"nej": {}, "inte": {}, "avbryt": {}, "ändra": {}, "no": {},
}

// Yes reports an affirmative answer. Matching is token-based so "jag" does
// not count as "ja".
func Yes(text string) bool {
	return containsAnyWord(text, yesWords)
}

// No reports a negative answer. Callers should check No before Yes: a turn
// like "nej, boka inte" contains tokens from both sets.
func No(text string) bool {
	return containsAnyWord(text, noWords)
}

func containsAnyWord(text string, words map[string]struct{}) bool {
	for _, tok := range reWordSplit.Split(strings.ToLower(text), -1) {
		if _, ok := words[tok]; ok {
			return true
		}
	}
	return false
}

// CancelIntent detects a wish to cancel an existing booking.
func CancelIntent(text string) bool {
	t := strings.ToLower(text)
	for _, p := range []string{"avboka", "avbokning", "ta bort min tid", "cancel"} {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// RescheduleIntent detects a wish to move an existing booking to a new time.
// Check this before CancelIntent; "boka om" must not fall through to cancel.
func RescheduleIntent(text string) bool {
	t := strings.ToLower(text)
	for _, p := range []string{"omboka", "ombokning", "boka om", "flytta min tid", "ändra min bokning", "reschedule"} {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
