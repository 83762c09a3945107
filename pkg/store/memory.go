package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
)

type entry struct {
	chunk  models.Chunk
	md     map[string]interface{}
	vector []float32
}

// MemoryStore is an in-process VectorStore using exact cosine similarity.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string][]entry
	embedder   embeddings.Embedder
}

func NewMemoryStore(embedder embeddings.Embedder) *MemoryStore {
	return &MemoryStore{
		namespaces: make(map[string][]entry),
		embedder:   embedder,
	}
}

func (s *MemoryStore) Add(ctx context.Context, namespace string, chunks []models.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("failed to create embeddings: got %d vectors for %d texts", len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.namespaces[namespace]
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		e := entry{chunk: c, md: c.StoreMetadata(), vector: vectors[i]}
		ids[i] = c.ChunkID

		replaced := false
		for j := range entries {
			if entries[j].chunk.ChunkID == c.ChunkID {
				entries[j] = e
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, e)
		}
	}
	s.namespaces[namespace] = entries

	return ids, nil
}

func (s *MemoryStore) Search(ctx context.Context, namespace, query string, k int, filter types.SearchFilter) ([]models.Chunk, error) {
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []models.Chunk
	for _, e := range s.namespaces[namespace] {
		if !matches(e.md, filter) {
			continue
		}
		c := e.chunk
		c.Metadata = e.md
		c.Score = cosine(vec, e.vector)
		hits = append(hits, c)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, namespace, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.namespaces[namespace]
	kept := entries[:0]
	for _, e := range entries {
		if e.chunk.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(s.namespaces, namespace)
		return nil
	}
	s.namespaces[namespace] = kept
	return nil
}

func (s *MemoryStore) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	delete(s.namespaces, namespace)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context, namespace string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace]), nil
}

func (s *MemoryStore) Close() {}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
