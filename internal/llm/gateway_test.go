package llm

import (
	"io"
	"testing"
)

type scriptedStream struct {
	deltas []string
	err    error // returned after deltas are exhausted (io.EOF for success)
	closed bool
}

func (s *scriptedStream) Recv() (string, error) {
	if len(s.deltas) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *scriptedStream) Close() { s.closed = true }

func TestDrain_ConcatenatesDeltas(t *testing.T) {
	s := &scriptedStream{deltas: []string{"Ex", "celentíssimo", " Senhor"}}
	got, err := Drain(s)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got != "Excelentíssimo Senhor" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestDrain_PropagatesStreamError(t *testing.T) {
	s := &scriptedStream{deltas: []string{"partial"}, err: io.ErrUnexpectedEOF}
	if _, err := Drain(s); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected stream error, got %v", err)
	}
}

func TestToOpenAIMessages_NormalizesUnknownRole(t *testing.T) {
	out := toOpenAIMessages([]ChatMessage{
		{Role: "system", Content: "persona"},
		{Role: "weird", Content: "x"},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if out[0].Role != "system" {
		t.Fatalf("system role mangled: %q", out[0].Role)
	}
	if out[1].Role != "user" {
		t.Fatalf("unknown role should degrade to user, got %q", out[1].Role)
	}
}
