package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"askpepper/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(content string, emb ...float32) types.Chunk {
	return types.Chunk{
		ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(content)),
		Content:   content,
		URL:       "https://example.org/" + content,
		Embedding: emb,
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(filepath.Join(t.TempDir(), "store.json"))
	_, err := s.WriteChunks(ctx, []types.Chunk{
		chunk("x", 1, 0),
		chunk("y", 0, 1),
		chunk("xy", 1, 1),
		chunk("long-x", 10, 0),
		chunk("wrong-dim", 1, 0, 0),
	}, PolicyOverwrite)
	require.NoError(t, err)

	got, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// magnitude does not matter for cosine; ties keep insertion order
	assert.Equal(t, "x", got[0].Content)
	assert.Equal(t, "long-x", got[1].Content)
	assert.Equal(t, "xy", got[2].Content)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.InDelta(t, 0.7071, got[2].Score, 1e-4)
}

func TestSearchEmptyStore(t *testing.T) {
	s := NewMemoryStore("unused")
	got, err := s.Search(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Search(context.Background(), nil, 5)
	assert.Error(t, err)
}

func TestWriteChunksPolicies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("unused")
	c := chunk("a", 1)
	_, err := s.WriteChunks(ctx, []types.Chunk{c}, PolicyOverwrite)
	require.NoError(t, err)

	updated := c
	updated.Title = "new"
	n, err := s.WriteChunks(ctx, []types.Chunk{updated}, PolicySkip)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "", s.Chunks()[0].Title)

	n, err = s.WriteChunks(ctx, []types.Chunk{updated}, PolicyOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "new", s.Chunks()[0].Title)

	_, err = s.WriteChunks(ctx, []types.Chunk{updated}, PolicyFail)
	assert.ErrorIs(t, err, ErrDuplicateChunk)

	count, _ := s.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "output", "document_store.json")
	s := NewMemoryStore(path)

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.WriteChunks(ctx, []types.Chunk{chunk("a", 1, 0), chunk("b", 0, 1)}, PolicyOverwrite)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	exists, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded := NewMemoryStore(path)
	require.NoError(t, loaded.Load(ctx))
	assert.Equal(t, s.Chunks(), loaded.Chunks())
}

func TestLoadCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	assert.Error(t, NewMemoryStore(path).Load(context.Background()))
}
