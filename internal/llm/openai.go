package llm

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tbourn/go-juris-backend/internal/config"
)

// fallbackModels is served when the provider's model listing is unreachable.
var fallbackModels = []Model{
	{ID: "gpt-4o"},
	{ID: "gpt-4o-mini"},
}

// OpenAIGateway implements Gateway on top of any OpenAI-compatible API.
type OpenAIGateway struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
}

// NewOpenAIGateway builds a gateway from provider configuration. BaseURL may
// point at any OpenAI-compatible endpoint; empty keeps the provider default.
func NewOpenAIGateway(cfg config.LLMConfig) *OpenAIGateway {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return &OpenAIGateway{
		client:         openai.NewClientWithConfig(c),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		switch role {
		case "user", "assistant", "system":
		default:
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// Complete implements Gateway.
func (g *OpenAIGateway) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.chatModel,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream implements Gateway.
func (g *OpenAIGateway) CompleteStream(ctx context.Context, messages []ChatMessage) (Stream, error) {
	s, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    g.chatModel,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}
	return &openaiStream{inner: s}, nil
}

// Embed implements Gateway.
func (g *OpenAIGateway) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(g.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, ErrEmptyResponse
	}
	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float64(f)
		}
		out[i] = vec
	}
	return out, nil
}

// ListModels implements Gateway. A provider failure degrades to the static
// fallback list tagged SourceFallback instead of an error.
func (g *OpenAIGateway) ListModels(ctx context.Context) (ModelList, error) {
	resp, err := g.client.ListModels(ctx)
	if err != nil || len(resp.Models) == 0 {
		if err != nil {
			log.Warn().Err(err).Msg("model listing unavailable, serving fallback")
		}
		return ModelList{Models: fallbackModels, Source: SourceFallback}, nil
	}
	out := make([]Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, Model{ID: m.ID})
	}
	return ModelList{Models: out, Source: SourceLive}, nil
}

type openaiStream struct {
	inner *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			return "", err // io.EOF marks normal completion
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *openaiStream) Close() { _ = s.inner.Close() }

var _ Stream = (*openaiStream)(nil)
var _ Gateway = (*OpenAIGateway)(nil)

// Drain consumes a stream to completion, returning the concatenated text.
// Used by callers that want streaming transport but a whole answer.
func Drain(s Stream) (string, error) {
	var b strings.Builder
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(delta)
	}
}
