package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
	"github.com/xhad/courseplan/pkg/llm/llmtest"
	"github.com/xhad/courseplan/pkg/store"
)

func getTestConfig(t *testing.T) store.VectorStoreConfig {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return store.VectorStoreConfig{
		ConnString: dsn,
		TableName:  "test_coursework_chunks",
		VectorDim:  32,
		BatchSize:  2,
	}
}

func TestPGVectorStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewWithConfig(ctx, getTestConfig(t), llmtest.Embedder(32))
	require.NoError(t, err)
	defer s.Close()

	ns := "coursework_" + uuid.NewString()
	other := "coursework_" + uuid.NewString()
	t.Cleanup(func() {
		_ = s.DeleteNamespace(ctx, ns)
		_ = s.DeleteNamespace(ctx, other)
	})

	ids, err := s.Add(ctx, ns, []models.Chunk{
		textChunk("doc1", "a", 0, "The deadline is Friday noon"),
		textChunk("doc1", "b", 1, "Implement a REST service in Java"),
		textChunk("doc2", "c", 0, "Marking: report 40 percent\x00"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	_, err = s.Add(ctx, other, []models.Chunk{textChunk("doc9", "z", 0, "The deadline is Friday noon")})
	require.NoError(t, err)

	hits, err := s.Search(ctx, ns, "deadline Friday", 2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, 1, *hits[0].PageNumber)
	for _, h := range hits {
		assert.NotEqual(t, "doc9", h.DocumentID)
	}

	hits, err = s.Search(ctx, ns, "report", 5, types.SearchFilter{"document_id": "doc2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Marking: report 40 percent", hits[0].Text)

	require.NoError(t, s.DeleteByDocument(ctx, ns, "doc1"))
	n, err := s.Stats(ctx, ns)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteNamespace(ctx, "coursework_missing"))
}
