// Package chunk splits extracted document pages into overlapping retrieval
// chunks. Boundaries prefer paragraph breaks, then sentence ends; a chunk is
// only cut mid-sentence when the window contains no usable boundary at all.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Page is one page of extracted text, as delivered by the upstream extractor.
type Page struct {
	Number int
	Text   string
}

// Piece is one chunk produced by the splitter, before persistence.
type Piece struct {
	Page       int
	Seq        int
	Text       string
	TokenCount int
}

// Splitter cuts page text into overlapping windows.
type Splitter struct {
	TargetRunes  int // soft maximum chunk length
	OverlapRunes int // shared tail/head between consecutive chunks
}

// Split chunks every page independently; page boundaries are never crossed.
// Sequence numbers restart per page. Pages that are empty after trimming are
// skipped.
func (s Splitter) Split(pages []Page) []Piece {
	var out []Piece
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		for seq, t := range s.splitPage(text) {
			out = append(out, Piece{
				Page:       p.Number,
				Seq:        seq,
				Text:       t,
				TokenCount: EstimateTokens(t),
			})
		}
	}
	return out
}

// splitPage produces the chunk texts of one page. Each chunk after the first
// starts OverlapRunes before the previous cut point, so consecutive chunks
// share that window verbatim.
func (s Splitter) splitPage(text string) []string {
	target := s.TargetRunes
	if target < 1 {
		target = 1000
	}
	overlap := s.OverlapRunes
	if overlap < 0 || overlap >= target {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= target {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + target
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := boundaryBefore(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		next := cut - overlap
		if next <= start {
			// overlap would stall progress on a tiny chunk
			next = cut
		}
		start = next
	}
	return chunks
}

// boundaryBefore finds the best cut position in (start, end]: the last
// paragraph break in the window, else the last sentence end, else end itself.
// A boundary in the first half of the window is ignored so chunks do not
// degenerate.
func boundaryBefore(runes []rune, start, end int) int {
	min := start + (end-start)/2
	if i := lastParagraphBreak(runes, min, end); i > 0 {
		return i
	}
	if i := lastSentenceEnd(runes, min, end); i > 0 {
		return i
	}
	return end
}

func lastParagraphBreak(runes []rune, min, end int) int {
	for i := end - 1; i > min; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return -1
}

func lastSentenceEnd(runes []rune, min, end int) int {
	for i := end - 1; i > min; i-- {
		switch runes[i] {
		case '.', '!', '?':
			// require trailing space/newline so "art. 5" style
			// abbreviations mid-text are less likely to cut
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
				return i + 1
			}
		case '\n':
			return i + 1
		}
	}
	return -1
}

// EstimateTokens approximates the provider token count of a text. Four runes
// per token is close enough for budget arithmetic.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	t := n / 4
	if t == 0 {
		t = 1
	}
	return t
}
