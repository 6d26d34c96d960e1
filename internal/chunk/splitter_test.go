package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortPageSingleChunk(t *testing.T) {
	s := Splitter{TargetRunes: 1000, OverlapRunes: 200}
	out := s.Split([]Page{{Number: 1, Text: "Breve despacho. Nada mais."}})
	if len(out) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(out))
	}
	if out[0].Page != 1 || out[0].Seq != 0 {
		t.Fatalf("unexpected piece: %+v", out[0])
	}
	if out[0].TokenCount < 1 {
		t.Fatalf("token estimate missing: %+v", out[0])
	}
}

func TestSplit_SkipsEmptyPagesAndRestartsSeq(t *testing.T) {
	s := Splitter{TargetRunes: 1000, OverlapRunes: 200}
	out := s.Split([]Page{
		{Number: 1, Text: "Página um."},
		{Number: 2, Text: "   \n  "},
		{Number: 3, Text: "Página três."},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out))
	}
	if out[0].Page != 1 || out[1].Page != 3 {
		t.Fatalf("empty page not skipped: %+v", out)
	}
	if out[0].Seq != 0 || out[1].Seq != 0 {
		t.Fatalf("seq must restart per page: %+v", out)
	}
}

func TestSplit_OverlapSharedBetweenConsecutiveChunks(t *testing.T) {
	sentence := "O autor requer a procedência total dos pedidos formulados. "
	text := strings.TrimSpace(strings.Repeat(sentence, 40))

	s := Splitter{TargetRunes: 300, OverlapRunes: 60}
	out := s.Split([]Page{{Number: 1, Text: text}})
	if len(out) < 3 {
		t.Fatalf("expected several chunks, got %d", len(out))
	}

	for i := 1; i < len(out); i++ {
		prev := []rune(out[i-1].Text)
		cur := []rune(out[i].Text)
		if len(prev) < s.OverlapRunes || len(cur) < s.OverlapRunes {
			t.Fatalf("chunk %d shorter than overlap window", i)
		}
		tail := string(prev[len(prev)-s.OverlapRunes:])
		head := string(cur[:s.OverlapRunes])
		if tail != head {
			t.Fatalf("chunk %d head does not repeat previous tail:\n tail=%q\n head=%q", i, tail, head)
		}
	}
}

func TestSplit_OverlapRemovalReconstructsPage(t *testing.T) {
	sentence := "A ré foi regularmente citada e apresentou contestação tempestiva. "
	text := strings.TrimSpace(strings.Repeat(sentence, 30))

	s := Splitter{TargetRunes: 250, OverlapRunes: 50}
	out := s.Split([]Page{{Number: 1, Text: text}})

	var b strings.Builder
	for i, p := range out {
		if i == 0 {
			b.WriteString(p.Text)
			continue
		}
		r := []rune(p.Text)
		b.WriteString(string(r[s.OverlapRunes:]))
	}
	if b.String() != text {
		t.Fatalf("overlap removal did not reconstruct the page\n got %d runes, want %d", utf8.RuneCountInString(b.String()), utf8.RuneCountInString(text))
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("a", 150)
	para2 := strings.Repeat("b", 150)
	text := para1 + "\n\n" + para2

	s := Splitter{TargetRunes: 200, OverlapRunes: 0}
	out := s.Split([]Page{{Number: 1, Text: text}})
	if len(out) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out))
	}
	if !strings.HasSuffix(out[0].Text, "a\n\n") && !strings.HasSuffix(strings.TrimRight(out[0].Text, "\n"), "a") {
		t.Fatalf("first chunk should end at the paragraph break: %q", out[0].Text)
	}
	if strings.Contains(out[0].Text, "b") {
		t.Fatalf("first chunk crossed the paragraph break")
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Fatalf("empty text should estimate 0 tokens")
	}
	if EstimateTokens("ab") != 1 {
		t.Fatalf("short text should estimate at least 1 token")
	}
	if got := EstimateTokens(strings.Repeat("x", 400)); got != 100 {
		t.Fatalf("expected 100 tokens for 400 runes, got %d", got)
	}
}
