package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
	"golang.org/x/sync/errgroup"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	// BatchSize is the number of texts sent per embedding request.
	BatchSize int
	// EmbedWorkers bounds concurrent embedding requests.
	EmbedWorkers int
	SearchLimit  int
}

// PGVectorStore keeps every namespace in one table; a namespace exists as
// long as it has rows.
type PGVectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig, embedder embeddings.Embedder) (*PGVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "coursework_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}
	if config.EmbedWorkers == 0 {
		config.EmbedWorkers = 4
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 6
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &PGVectorStore{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *PGVectorStore) initialize(ctx context.Context) error {
	if _, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, id)
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx
			ON %[1]s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`, vs.config.TableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_document_idx ON %[1]s (namespace, document_id)`, vs.config.TableName),
	}
	for _, idx := range indexes {
		if _, err := vs.pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Add embeds and upserts chunks into namespace, returning their ids.
func (vs *PGVectorStore) Add(ctx context.Context, namespace string, chunks []models.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = sanitizeUTF8(c.Text)
	}

	vectors, err := vs.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (namespace, id, document_id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (namespace, id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		vs.config.TableName)

	batch := &pgx.Batch{}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		md, err := json.Marshal(c.StoreMetadata())
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		batch.Queue(stmt, namespace, c.ChunkID, c.DocumentID, texts[i], pgvector.NewVector(vectors[i]), string(md))
		ids[i] = c.ChunkID
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debugw("stored chunks", "namespace", namespace, "count", len(ids))
	return ids, nil
}

// embed splits texts into batches and embeds them concurrently, keeping
// the input order.
func (vs *PGVectorStore) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vs.config.EmbedWorkers)

	for start := 0; start < len(texts); start += vs.config.BatchSize {
		start := start
		end := start + vs.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			out, err := vs.embedder.EmbedDocuments(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to create embeddings: %w", err)
			}
			if len(out) != end-start {
				return fmt.Errorf("failed to create embeddings: got %d vectors for %d texts", len(out), end-start)
			}
			copy(vectors[start:end], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Search returns the k chunks of namespace closest to query whose metadata
// contains filter.
func (vs *PGVectorStore) Search(ctx context.Context, namespace, query string, k int, filter types.SearchFilter) ([]models.Chunk, error) {
	if k <= 0 {
		k = vs.config.SearchLimit
	}

	vec, err := vs.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if filter == nil {
		filter = types.SearchFilter{}
	}
	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE namespace = $2 AND metadata @> $3::jsonb
		ORDER BY embedding <=> $1
		LIMIT $4`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, q, pgvector.NewVector(vec), namespace, string(rawFilter), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var (
			id, content string
			md          map[string]interface{}
			score       float64
		)
		if err := rows.Scan(&id, &content, &md, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, chunkFromMetadata(id, content, md, float32(score)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return out, nil
}

func (vs *PGVectorStore) DeleteByDocument(ctx context.Context, namespace, documentID string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE namespace = $1 AND document_id = $2", vs.config.TableName)
	tag, err := vs.pool.Exec(ctx, q, namespace, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	logger.Infow("deleted document chunks", "namespace", namespace, "document_id", documentID, "rows", tag.RowsAffected())
	return nil
}

// DeleteNamespace removes every chunk of namespace. Unknown namespaces are
// a no-op.
func (vs *PGVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE namespace = $1", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, q, namespace); err != nil {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}
	return nil
}

func (vs *PGVectorStore) Stats(ctx context.Context, namespace string) (int, error) {
	var n int
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE namespace = $1", vs.config.TableName)
	if err := vs.pool.QueryRow(ctx, q, namespace).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func (vs *PGVectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
