package extract

import "strings"

// ServiceEntry is one bookable service in a vertical's catalog.
type ServiceEntry struct {
	ID       int
	Name     string
	Keywords []string
}

// fuzzyCutoff mirrors the similarity threshold the keyword fallback uses.
const fuzzyCutoff = 0.4

// MatchService maps an utterance to a catalog entry: keyword containment
// first, then bigram similarity against the display names. A miss returns
// ok=false and the slot stays unset.
func MatchService(text string, catalog []ServiceEntry) (ServiceEntry, bool) {
	t := strings.ToLower(text)
	for _, entry := range catalog {
		for _, kw := range entry.Keywords {
			if strings.Contains(t, kw) {
				return entry, true
			}
		}
	}

	var best ServiceEntry
	bestScore := 0.0
	for _, entry := range catalog {
		score := bigramSimilarity(t, strings.ToLower(entry.Name))
		if score > bestScore {
			best = entry
			bestScore = score
		}
	}
	if bestScore >= fuzzyCutoff {
		return best, true
	}
	return ServiceEntry{}, false
}

// bigramSimilarity is a Dice coefficient over character bigrams.
func bigramSimilarity(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	shared := 0
	for bg, n := range ba {
		if m, ok := bb[bg]; ok {
			if m < n {
				shared += m
			} else {
				shared += n
			}
		}
	}
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(shared) / float64(total)
}

func bigrams(s string) map[string]int {
	r := []rune(s)
	out := make(map[string]int)
	for i := 0; i+1 < len(r); i++ {
		out[string(r[i:i+2])]++
	}
	return out
}
