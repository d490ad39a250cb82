package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"askpepper/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, dir string) string {
	long := strings.Repeat("Il corso di laurea forma esperti di dati. ", 6)
	rows := []map[string]any{
		{"titolo": "Corso", "indirizzo": "https://unipa.it/corso", "testo": long},
		{"titolo": "Breve", "indirizzo": "https://unipa.it/breve", "testo": "Troppo corto."},
	}
	data, err := json.Marshal(rows)
	require.NoError(t, err)
	path := filepath.Join(dir, "dataset.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadDocuments(t *testing.T) {
	docs, rows, err := LoadDocuments(writeDataset(t, t.TempDir()), 200)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	require.Len(t, docs, 1)
	assert.Equal(t, "https://unipa.it/corso", docs[0].URL)
}

func TestBuildWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{
		DatasetPath:  writeDataset(t, dir),
		StoreBackend: "memory",
		StorePath:    filepath.Join(dir, "output", "document_store.json"),
		MinDocLength: 200,
		SplitLength:  2,
	}

	emb := &countingEmbedder{}
	st, closeStore, err := Build(context.Background(), cfg, emb)
	require.NoError(t, err)
	defer closeStore()

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.FileExists(t, cfg.StorePath)

	// second build reads the snapshot without embedding anything
	again := &countingEmbedder{}
	st2, closeStore2, err := Build(context.Background(), cfg, again)
	require.NoError(t, err)
	defer closeStore2()
	n, err = st2.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, again.calls)
}

func TestBuildUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{DatasetPath: writeDataset(t, dir), StoreBackend: "sqlite"}
	_, _, err := Build(context.Background(), cfg, &countingEmbedder{})
	assert.ErrorContains(t, err, "unknown store backend")
}
