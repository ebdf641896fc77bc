// Package fuzzy provides typo-tolerant matching for inbox search.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document is the searchable view of an inbox message
type Document struct {
	Subject  string
	From     string
	FromName string
	Summary  string
	Body     string
}

// LevenshteinDistance is the number of single-rune edits between s1 and s2
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalize(s1))
	r2 := []rune(normalize(s2))
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// threshold scales typo tolerance with query length
func threshold(query string) int {
	switch n := len([]rune(query)); {
	case n <= 3:
		return 0
	case n >= 8:
		return 2
	default:
		return 1
	}
}

// Match reports whether query appears in text, allowing small typos per word
func Match(query, text string) bool {
	query = normalize(query)
	text = normalize(text)
	if query == "" {
		return true
	}
	if strings.Contains(text, query) {
		return true
	}

	limit := threshold(query)
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) || LevenshteinDistance(query, word) <= limit {
			return true
		}
	}
	return false
}

// Score ranks how relevant doc is to query; zero means no match
func Score(query string, doc Document) float64 {
	q := normalize(query)
	if q == "" {
		return 0
	}

	score := fieldScore(q, doc.Subject, 100, 50)
	score += fieldScore(q, doc.FromName, 80, 40)
	score += fieldScore(q, doc.From, 60, 30)
	score += fieldScore(q, doc.Summary, 40, 20)

	body := doc.Body
	if len(body) > 500 {
		body = body[:500]
	}
	if score == 0 && Match(q, body) {
		score += 10
	}
	return score
}

func fieldScore(q, field string, exact, fuzzy float64) float64 {
	text := normalize(field)
	if text == "" {
		return 0
	}
	if strings.Contains(text, q) {
		for _, w := range strings.Fields(text) {
			if w == q {
				return exact * 1.5
			}
		}
		return exact
	}

	limit := threshold(q)
	best := 0.0
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, q) {
			best = max(best, fuzzy)
			continue
		}
		if d := LevenshteinDistance(q, word); d <= limit {
			best = max(best, fuzzy-float64(d)*10)
		}
	}
	return best
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips diacritics and collapses whitespace
func normalize(s string) string {
	s = strings.ToLower(s)
	if stripped, _, err := transform.String(accentStripper, s); err == nil {
		s = stripped
	}
	return strings.Join(strings.Fields(s), " ")
}
