package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Swedish weekday prefixes to Go weekdays.
var weekdayPrefixes = map[string]time.Weekday{
	"mån": time.Monday, "tis": time.Tuesday, "ons": time.Wednesday,
	"tors": time.Thursday, "fre": time.Friday, "lör": time.Saturday,
	"sön": time.Sunday,
}

var (
	reISODate     = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	reNextWeekday = regexp.MustCompile(`nästa\s+(mån|tis|ons|tors|fre|lör|sön)`)
)

// Date resolves an absolute or relative date expression against base and
// returns ISO format (2006-01-02), or empty when nothing parses.
// "Nästa fredag" spoken on a Friday means the Friday one week ahead, never
// the same day.
func Date(text string, base time.Time) string {
	t := strings.ToLower(text)

	if m := reISODate.FindStringSubmatch(t); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, base.Location()).Format("2006-01-02")
		}
	}

	switch {
	case strings.Contains(t, "i övermorgon") || strings.Contains(t, "i över morgon"):
		return base.AddDate(0, 0, 2).Format("2006-01-02")
	case strings.Contains(t, "imorgon") || strings.Contains(t, "i morgon"):
		return base.AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(t, "idag"):
		return base.Format("2006-01-02")
	}

	if m := reNextWeekday.FindStringSubmatch(t); m != nil {
		target := weekdayPrefixes[m[1]]
		delta := (int(target) - int(base.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return base.AddDate(0, 0, delta).Format("2006-01-02")
	}

	return ""
}

const hourAlt = `[01]?\d|2[0-3]|ett|två|tva|tre|fyra|fem|sex|sju|åtta|atta|nio|tio|elva|tolv`

// RE2's \b is ASCII-only, so it never matches after hour words ending in
// å/ä/ö ("två", "åtta"). The hour alternation is terminated explicitly.
const hourEnd = `(?:\s|$|[,.!?])`

var (
	reClock     = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)\b`)
	reHalf      = regexp.MustCompile(`\bhalv\s+(` + hourAlt + `)` + hourEnd)
	reQuartPast = regexp.MustCompile(`\bkvart över\s+(` + hourAlt + `)` + hourEnd)
	reQuartTo   = regexp.MustCompile(`\bkvart i\s+(` + hourAlt + `)` + hourEnd)
	rePrefixed  = regexp.MustCompile(`\b(?:klockan|kl\.?|vid)\s+([01]?\d|2[0-3])\b`)
	reBareHour  = regexp.MustCompile(`^\s*([01]?\d|2[0-3])\s*$`)
)

var hourWords = map[string]int{
	"ett": 1, "två": 2, "tva": 2, "tre": 3, "fyra": 4, "fem": 5, "sex": 6,
	"sju": 7, "åtta": 8, "atta": 8, "nio": 9, "tio": 10, "elva": 11, "tolv": 12,
}

// TimeOfDay resolves a spoken time expression to "HH:MM", or empty.
// Idiomatic half/quarter phrases use the 12-hour clock, so their result is
// shifted into business hours: "halv tre" is 14:30, not 02:30.
func TimeOfDay(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))

	if m := reClock.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", h, m[2])
	}

	if m := reHalf.FindStringSubmatch(t); m != nil {
		h := (parseHour(m[1]) - 1 + 24) % 24
		return fmt.Sprintf("%02d:30", businessHour(h))
	}
	if m := reQuartPast.FindStringSubmatch(t); m != nil {
		h := parseHour(m[1]) % 24
		return fmt.Sprintf("%02d:15", businessHour(h))
	}
	if m := reQuartTo.FindStringSubmatch(t); m != nil {
		h := (parseHour(m[1]) - 1 + 24) % 24
		return fmt.Sprintf("%02d:45", businessHour(h))
	}

	switch {
	case strings.Contains(t, "lunch"):
		return "12:00"
	case strings.Contains(t, "förmiddag"):
		return "10:00"
	case strings.Contains(t, "eftermiddag"):
		return "15:00"
	}

	if m := rePrefixed.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:00", h)
	}
	// A bare hour only counts when it is the whole utterance; anything longer
	// risks misreading phone digits or booking references as a time.
	if m := reBareHour.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:00", h)
	}

	return ""
}

func parseHour(s string) int {
	if h, ok := hourWords[s]; ok {
		return h
	}
	h, _ := strconv.Atoi(s)
	return h
}

// businessHour shifts ambiguous 12-hour-clock hours into the afternoon:
// nobody books a salon visit at half past two in the night.
func businessHour(h int) int {
	if h < 9 {
		return h + 12
	}
	return h
}
