package rating

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseCount parses a histogram bar count, stripping thousands
// separators first.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return strconv.Atoi(s)
}

// DecodeSize converts a human-readable magnitude ("4.2M") to bytes,
// with k/m/g/t standing for 10^3/10^6/10^9/10^12. Values without a
// recognized suffix, such as "Varies with device", report ok=false.
func DecodeSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, false
	}

	var mult float64
	switch unicode.ToLower(rune(s[len(s)-1])) {
	case 'k':
		mult = 1e3
	case 'm':
		mult = 1e6
	case 'g':
		mult = 1e9
	case 't':
		mult = 1e12
	default:
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(value * mult)), true
}

// PhraseFrequencies counts case-insensitive substring occurrences of
// each phrase across all review bodies and normalizes by the total
// review word count. With zero reviews (or no words at all) it returns
// nil so the frequencies section is omitted rather than reported as
// all zeroes.
func PhraseFrequencies(reviews, phrases []string) map[string]float64 {
	words := 0
	for _, review := range reviews {
		words += len(strings.Fields(review))
	}
	if words == 0 {
		return nil
	}

	lowered := make([]string, len(reviews))
	for i, review := range reviews {
		lowered[i] = strings.ToLower(review)
	}

	out := make(map[string]float64, len(phrases))
	for _, phrase := range phrases {
		needle := strings.ToLower(phrase)
		occurrences := 0
		for _, review := range lowered {
			occurrences += strings.Count(review, needle)
		}
		out[phrase] = float64(occurrences) / float64(words)
	}
	return out
}

func categorySlug(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	return strings.ToLower(href)
}
