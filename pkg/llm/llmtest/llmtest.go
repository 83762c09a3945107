// Package llmtest provides deterministic model and embedding doubles.
package llmtest

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// Embedder returns a bag-of-words embedder: each lowercased word is hashed
// into one of dim buckets and the vector is L2 normalised. Texts sharing
// words get a higher cosine similarity.
func Embedder(dim int) embeddings.Embedder {
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = vector(text, dim)
		}
		return out, nil
	})
	e, _ := embeddings.NewEmbedder(client)
	return e
}

func vector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(dim)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}

// Model wraps the langchaingo fake LLM with a mutex and records the
// messages of every call.
type Model struct {
	mu    sync.Mutex
	llm   *fake.LLM
	Calls [][]llms.MessageContent
}

func NewModel(responses ...string) *Model {
	return &Model{llm: fake.NewFakeLLM(responses)}
}

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, messages)
	return m.llm.GenerateContent(ctx, messages, options...)
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// LastText returns the concatenated text parts of the most recent call.
func (m *Model) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, msg := range m.Calls[len(m.Calls)-1] {
		for _, part := range msg.Parts {
			if t, ok := part.(llms.TextContent); ok {
				sb.WriteString(t.Text)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// Failing is a model whose every call returns err.
type Failing struct {
	Err error
}

func (f Failing) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, f.Err
}

func (f Failing) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", f.Err
}
