// Package normalize turns raw speech-to-text transcripts into canonical text.
// Spoken digits, symbol words and common Swedish mis-hearings are rewritten to
// literal characters so that downstream slot extractors can work with plain
// regular expressions.
package normalize

import (
	"regexp"
	"strings"
)

// disfluencies are dropped outright before any other rewriting. Confirmation
// words (ja/nej/okej) are NOT in this list; the dialog needs them.
var disfluencies = map[string]struct{}{
	"eh": {}, "öh": {}, "aaah": {}, "mmm": {}, "typ": {}, "liksom": {},
	"alltså": {}, "ehm": {}, "öhmm": {}, "mm": {}, "mhm": {}, "hmm": {},
	"ah": {}, "well": {},
}

// symbolWords maps whole spoken tokens to literal symbols.
var symbolWords = map[string]string{
	"snabela":  "@",
	"snabel-a": "@",
	"snabel":   "@",
	"at":       "@",
	"punkt":    ".",
	"dot":      ".",
	"prick":    ".",
}

// digitWords maps Swedish and English digit words to single digits.
var digitWords = map[string]string{
	"noll": "0", "zero": "0",
	"ett": "1", "en": "1", "one": "1",
	"två": "2", "tva": "2", "two": "2",
	"tre": "3", "three": "3",
	"fyra": "4", "four": "4",
	"fem": "5", "five": "5",
	"sex": "6", "six": "6",
	"sju": "7", "seven": "7",
	"åtta": "8", "atta": "8", "eight": "8",
	"nio": "9", "nine": "9",
}

// phoneRunMin is the shortest run of spoken digits that is collapsed into a
// single number token (anything shorter is left as separate digits).
const phoneRunMin = 6

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reAroundAt  = regexp.MustCompile(`\s*@\s*`)
	reAroundDot = regexp.MustCompile(`\s*\.\s*`)
	reDotKom    = regexp.MustCompile(`\.kom\b`)
	reSingleNum = regexp.MustCompile(`^\d$`)
	reClockPair = regexp.MustCompile(`\b(\d{1,2}) (\d{2})\b`)
)

// Normalize canonicalizes a raw utterance. It is deterministic, never fails
// and is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = reSpaces.ReplaceAllString(s, " ")

	tokens := strings.Split(s, " ")
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, skip := disfluencies[tok]; skip {
			continue
		}
		if sym, ok := symbolWords[tok]; ok {
			out = append(out, sym)
			continue
		}
		out = append(out, tok)
	}
	s = strings.Join(out, " ")

	s = reAroundAt.ReplaceAllString(s, "@")
	s = reAroundDot.ReplaceAllString(s, ".")
	s = reDotKom.ReplaceAllString(s, ".com")

	s = collapseDigitRuns(s)
	s = reClockPair.ReplaceAllString(s, "${1}:${2}")

	return strings.TrimSpace(s)
}

// collapseDigitRuns joins consecutive spoken digits into one number once the
// run is long enough to plausibly be a phone number.
func collapseDigitRuns(s string) string {
	tokens := strings.Split(s, " ")
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if _, ok := asDigit(tokens[i]); !ok {
			out = append(out, tokens[i])
			i++
			continue
		}
		var run []string
		for i < len(tokens) {
			d, ok := asDigit(tokens[i])
			if !ok {
				break
			}
			run = append(run, d)
			i++
		}
		if len(run) >= phoneRunMin {
			out = append(out, strings.Join(run, ""))
		} else {
			out = append(out, run...)
		}
	}
	return strings.Join(out, " ")
}

func asDigit(tok string) (string, bool) {
	if d, ok := digitWords[tok]; ok {
		return d, true
	}
	if reSingleNum.MatchString(tok) {
		return tok, true
	}
	return "", false
}
