// Package llm defines the language-model gateway: the single seam through
// which the rest of the application talks to an OpenAI-compatible provider.
// Services depend on the Gateway interface; the concrete client lives in
// openai.go. Tests substitute hand-rolled fakes.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answered successfully but
// produced no usable content. Callers should treat it differently from a
// provider/transport failure.
var ErrEmptyResponse = errors.New("llm: empty response")

// Model describes one entry of the model listing.
type Model struct {
	ID string `json:"id"`
}

// ModelList is the result of ListModels together with where it came from:
// "live" when the provider answered, "fallback" when the static default list
// was used because the provider was unreachable.
type ModelList struct {
	Models []Model `json:"models"`
	Source string  `json:"source"` // live|fallback
}

// ModelList sources.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// ChatMessage is one turn of provider input.
type ChatMessage struct {
	Role    string // user|assistant|system
	Content string
}

// Stream yields assistant deltas as the provider produces them. Recv returns
// io.EOF after the final delta; any other error means the stream broke and
// the accumulated text must be discarded. Close releases the connection and
// is safe to call more than once.
type Stream interface {
	Recv() (delta string, err error)
	Close()
}

// Gateway is the provider-facing surface the services use.
type Gateway interface {
	// Complete runs a non-streaming chat completion and returns the full
	// assistant text, or ErrEmptyResponse when the provider returned nothing.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)

	// CompleteStream opens a streaming chat completion.
	CompleteStream(ctx context.Context, messages []ChatMessage) (Stream, error)

	// Embed returns one embedding vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// ListModels returns the provider's models, or the fallback list when
	// the provider cannot be reached. It never returns an empty list.
	ListModels(ctx context.Context) (ModelList, error)
}
