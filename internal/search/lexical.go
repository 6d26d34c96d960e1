// Package search scores stored document chunks and learned theses against a
// query. The primary signal is cosine similarity between embeddings; rows
// whose embedding is missing fall back to a lexical Jaccard score, scaled so
// they always rank below embedded rows.
//
// Design notes:
//   - No logging in the library (callers decide how/what to log)
//   - Deterministic scoring and sorting (stable order for ties)
//   - An empty candidate set yields an empty result, never an error
package search

import (
	"regexp"
	"strings"
)

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// tokenize lowercases s and extracts its unique word tokens, skipping any in
// stop.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// jaccard is |Q ∩ T| / |Q ∪ T| between the query token set and a text's
// token set, in [0,1].
func jaccard(qTokens map[string]struct{}, text string, stop map[string]struct{}) float64 {
	tTokens := tokenize(text, stop)
	over := overlap(qTokens, tTokens)
	if over == 0 {
		return 0
	}
	union := float64(len(qTokens) + len(tTokens) - over)
	if union <= 0 {
		return 0
	}
	return float64(over) / union
}

// portugueseStopwords are high-frequency function words ignored by the
// lexical fallback scorer.
var portugueseStopwords = func() map[string]struct{} {
	words := []string{
		"a", "o", "as", "os", "um", "uma", "de", "do", "da", "dos", "das",
		"em", "no", "na", "nos", "nas", "por", "para", "com", "sem", "sob",
		"que", "se", "e", "ou", "ao", "aos", "à", "às", "é", "são", "foi",
		"ser", "sua", "seu", "suas", "seus", "como", "mais", "não",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
