package normalize

import (
	"regexp"
	"strings"
)

// The email pipeline is deliberately heavier than Normalize: spelled-out
// addresses arrive with phonetic alphabet helpers ("j som johan"), many
// mis-heard symbol words and glued domain fragments.

// emailFillers also drops confirmation words; inside a spelled address they
// are never part of the local part.
var emailFillers = map[string]struct{}{
	"eh": {}, "öh": {}, "aaah": {}, "mmm": {}, "typ": {}, "liksom": {},
	"alltså": {}, "ehm": {}, "öhmm": {}, "ja": {}, "jo": {}, "nej": {},
	"okej": {}, "ok": {}, "mm": {}, "mhm": {}, "ah": {}, "jah": {}, "well": {},
}

// emailSymbols covers the mis-hearings seen in real transcripts.
var emailSymbols = map[string]string{
	"snabel-a": "@", "snabela": "@", "snabel": "@", "snabbel": "@",
	"snabbela": "@", "snabbel-a": "@", "snobbel": "@", "snobbel-a": "@",
	"snobell": "@", "snabble": "@", "snabell": "@", "snobbela": "@",
	"at": "@", "ett": "@", // ASR sometimes turns "at" into "ett"
	"punkt": ".", "punk": ".", "ponkt": ".", "pankt": ".", "dot": ".", "prick": ".",
	"streck": "-", "sträck": "-", "bindestreck": "-", "bindestrek": "-", "dash": "-", "minus": "-",
	"understreck": "_", "understräck": "_", "underscore": "_",
	"plus": "+", "pluss": "+", "plos": "+",
}

// phoneticLetters maps Swedish phonetic-alphabet words to their letter.
var phoneticLetters = map[string]string{
	"adam": "a", "anders": "a",
	"bertil": "b",
	"cesar":  "c", "caesar": "c",
	"david":  "d",
	"erik":   "e",
	"filip":  "f",
	"gustav": "g",
	"helge":  "h", "hilda": "h",
	"ivar":   "i",
	"johan":  "j",
	"kalle":  "k",
	"ludvig": "l", "lovisa": "l",
	"martin": "m", "maria": "m",
	"niklas": "n",
	"olof":   "o", "oscar": "o", "oskar": "o",
	"petter": "p", "pelle": "p",
	"qvintus": "q", "quintus": "q",
	"rudolf": "r",
	"sigurd": "s", "sara": "s",
	"tore":   "t",
	"urban":  "u",
	"viktor": "v", "victor": "v",
	"wilhelm": "w",
	"xerxes":  "x",
	"yngve":   "y",
	"zäta":    "z", "zeta": "z",
}

var domainPhrases = [][2]string{
	{"gmail com", "gmail.com"}, {"gmail punkt com", "gmail.com"}, {"gmail dot com", "gmail.com"},
	{"hotmail com", "hotmail.com"}, {"hotmail punkt com", "hotmail.com"}, {"hot mail punkt com", "hotmail.com"},
	{"outlook com", "outlook.com"}, {"out look com", "outlook.com"},
	{"yahoo com", "yahoo.com"}, {"icloud com", "icloud.com"},
	{".kom", ".com"}, {"punkt kom", ".com"}, {"dot com", ".com"}, {"punkt con", ".com"},
	{"punkt se", ".se"}, {"punkt nu", ".nu"},
	{".se.", ".se"}, {".com.", ".com"},
}

var (
	reGluedGmail   = regexp.MustCompile(`g\s*mail\s*(?:punkt|dot)\s*com`)
	reGluedHotmail = regexp.MustCompile(`hot\s*mail\s*punkt\s*com`)
	reGluedOutlook = regexp.MustCompile(`out\s*look\s*punkt\s*com`)
	reGluedIcloud  = regexp.MustCompile(`icloud\s*punkt\s*com`)
	reLetterSom    = regexp.MustCompile(`\b([a-zåäö])\s+som\s+([a-zåäö]+)\b`)
	reEmailToken   = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	reValidEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	reSymbolGap    = regexp.MustCompile(`\s*([@.\-_+])\s*`)
)

// trimmable punctuation around spoken tokens and extracted candidates.
const tokenCutset = "’'\",;:()[]{}<>!?“”‘"

// EmailCandidate recovers an email address from a messy spoken utterance.
// It returns the best candidate found, or the cleaned-up string when nothing
// email-like is present; callers validate with ValidEmail.
func EmailCandidate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	s = reSpaces.ReplaceAllString(s, " ")

	tokens := strings.Split(s, " ")
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		t := strings.Trim(tok, tokenCutset)
		if t == "" {
			continue
		}
		if _, skip := emailFillers[t]; skip {
			continue
		}
		if sym, ok := emailSymbols[t]; ok {
			out = append(out, sym)
			continue
		}
		out = append(out, t)
	}
	s = strings.Join(out, " ")

	s = collapsePhonetics(s)
	s = applyDomainFixes(s)

	// Tighten symbols, drop remaining spaces and diacritics; an address is
	// pure ASCII at this point or not an address at all.
	s = reSymbolGap.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, " ", "")
	s = stripDiacritics(s)

	if candidate := bestEmail(s); candidate != "" {
		return candidate
	}

	// Last-resort patches for ".kom"-style endings glued without a dot.
	s = strings.ReplaceAll(s, "kom", "com")
	s = strings.ReplaceAll(s, "@gmailcom", "@gmail.com")
	if candidate := bestEmail(s); candidate != "" {
		return candidate
	}
	return s
}

// ExtractEmail finds the first valid address in the text. The raw parse wins
// over the spoken-form recovery so literal input is never second-guessed; the
// lightly normalized parse keeps word boundaries intact and avoids gluing
// surrounding words onto the local part.
func ExtractEmail(text string) string {
	var candidates []string
	if m := reEmailToken.FindString(strings.ToLower(text)); m != "" {
		candidates = append(candidates, strings.Trim(m, tokenCutset))
	}
	if m := reEmailToken.FindString(Normalize(text)); m != "" {
		candidates = append(candidates, strings.Trim(m, tokenCutset))
	}
	if c := EmailCandidate(text); c != "" {
		candidates = append(candidates, strings.Trim(c, tokenCutset))
	}
	for _, c := range candidates {
		if ValidEmail(c) {
			return c
		}
	}
	return ""
}

// ValidEmail reports whether s is a strict ASCII email with a TLD of at
// least two characters.
func ValidEmail(s string) bool {
	if s == "" {
		return false
	}
	return reValidEmail.MatchString(stripDiacritics(s))
}

func collapsePhonetics(s string) string {
	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		if letter, ok := phoneticLetters[tok]; ok {
			tokens[i] = letter
		}
	}
	s = strings.Join(tokens, " ")
	// "j som johan" keeps the spoken letter.
	return reLetterSom.ReplaceAllString(s, "$1")
}

func applyDomainFixes(s string) string {
	for _, pair := range domainPhrases {
		s = strings.ReplaceAll(s, pair[0], pair[1])
	}
	s = reGluedGmail.ReplaceAllString(s, "gmail.com")
	s = reGluedHotmail.ReplaceAllString(s, "hotmail.com")
	s = reGluedOutlook.ReplaceAllString(s, "outlook.com")
	s = reGluedIcloud.ReplaceAllString(s, "icloud.com")
	return s
}

func bestEmail(s string) string {
	candidates := reEmailToken.FindAllString(s, -1)
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

var diacriticReplacer = strings.NewReplacer(
	"å", "a", "ä", "a", "ö", "o",
	"Å", "A", "Ä", "A", "Ö", "O",
)

func stripDiacritics(s string) string {
	return diacriticReplacer.Replace(s)
}
