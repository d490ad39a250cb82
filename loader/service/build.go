package service

import (
	"context"
	"log"

	"askpepper/loader/internal"
	"askpepper/model"
	"askpepper/store"
	"askpepper/types"
)

const DefaultMinLength = internal.DefaultMinLength

// PrepareDocuments cleans dataset rows and turns the survivors into documents.
func PrepareDocuments(records []types.RawRecord, minLength int) []types.Document {
	return internal.ToDocuments(internal.Preprocess(records, minLength))
}

// LoadDocuments reads the dataset at path and returns the documents that
// survive preprocessing, along with the number of rows read.
func LoadDocuments(path string, minLength int) ([]types.Document, int, error) {
	records, err := internal.ReadDataset(path)
	if err != nil {
		return nil, 0, err
	}
	docs := PrepareDocuments(records, minLength)
	log.Printf("Prepared %d documents from %d rows\n", len(docs), len(records))
	return docs, len(records), nil
}

// Build opens the configured store and makes sure it holds the dataset's
// chunks. The returned function releases the store.
func Build(ctx context.Context, cfg types.Config, embedder model.Embedder) (store.DBStorer, func(), error) {
	docs, _, err := LoadDocuments(cfg.DatasetPath, cfg.MinDocLength)
	if err != nil {
		return nil, nil, err
	}

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.StoreBackend != "postgres" && internal.SnapshotOlderThan(cfg.StorePath, cfg.DatasetPath) {
		log.Printf("WARNING: %s is newer than the snapshot %s; the snapshot is reused as is\n", cfg.DatasetPath, cfg.StorePath)
	}

	if _, err := New(embedder, cfg.SplitLength).SetupDocumentStore(ctx, docs, st); err != nil {
		closeStore()
		return nil, nil, err
	}
	return st, closeStore, nil
}
