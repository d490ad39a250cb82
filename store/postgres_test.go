package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"askpepper/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaUsesHNSWIndex(t *testing.T) {
	sql := schemaSQL(1024)
	assert.Contains(t, sql, "embedding vector(1024)")
	assert.Contains(t, sql, "USING hnsw (embedding vector_cosine_ops)")
	assert.Contains(t, sql, "DROP INDEX IF EXISTS idx_chunks_embedding;")
	assert.NotContains(t, sql, "ivfflat")
}

// Runs against a real database when PG_TEST_URL points at one with pgvector.
func TestPostgresStore(t *testing.T) {
	connStr := os.Getenv("PG_TEST_URL")
	if connStr == "" {
		t.Skip("PG_TEST_URL not set")
	}
	ctx := context.Background()

	pg, err := NewPostgresStore(ctx, connStr, 3)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Init(ctx))
	_, err = pg.pool.Exec(ctx, "TRUNCATE chunks, documents")
	require.NoError(t, err)

	exists, err := pg.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	doc := uuid.New()
	chunks := []types.Chunk{
		{ID: uuid.New(), DocID: doc, Index: 0, Title: "Corso", URL: "https://unipa.it/a", Content: "dati", Embedding: []float32{1, 0, 0}},
		{ID: uuid.New(), DocID: doc, Index: 1, Title: "Corso", URL: "https://unipa.it/a", Content: "reti", Embedding: []float32{0, 1, 0}},
	}
	n, err := pg.WriteChunks(ctx, chunks, PolicyOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = pg.WriteChunks(ctx, chunks[:1], PolicyFail)
	assert.ErrorIs(t, err, ErrDuplicateChunk)

	n, err = pg.WriteChunks(ctx, chunks, PolicySkip)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := pg.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "reti", got[0].Content)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
}

func TestPostgresSearchFillsLimitOnSmallCorpus(t *testing.T) {
	connStr := os.Getenv("PG_TEST_URL")
	if connStr == "" {
		t.Skip("PG_TEST_URL not set")
	}
	ctx := context.Background()

	pg, err := NewPostgresStore(ctx, connStr, 3)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Init(ctx))
	_, err = pg.pool.Exec(ctx, "TRUNCATE chunks, documents")
	require.NoError(t, err)

	doc := uuid.New()
	var chunks []types.Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, types.Chunk{
			ID:        uuid.New(),
			DocID:     doc,
			Index:     i,
			Title:     "Corso",
			URL:       "https://unipa.it/a",
			Content:   fmt.Sprintf("frase %d", i),
			Embedding: []float32{1, float32(i), float32(8 - i)},
		})
	}
	_, err = pg.WriteChunks(ctx, chunks, PolicyOverwrite)
	require.NoError(t, err)

	got, err := pg.Search(ctx, []float32{1, 1, 1}, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
