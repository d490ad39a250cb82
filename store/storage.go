package store

import (
	"context"
	"errors"

	"askpepper/types"
)

// DuplicatePolicy decides what WriteChunks does with an ID already present.
type DuplicatePolicy int

const (
	PolicyOverwrite DuplicatePolicy = iota
	PolicySkip
	PolicyFail
)

var ErrDuplicateChunk = errors.New("chunk already exists")

// Searcher is the read side used while answering queries.
type Searcher interface {
	Search(ctx context.Context, queryVec []float32, limit int) ([]types.Chunk, error)
}

// DBStorer is a document store that can also persist and reload itself.
type DBStorer interface {
	Searcher
	WriteChunks(ctx context.Context, chunks []types.Chunk, policy DuplicatePolicy) (int, error)
	Count(ctx context.Context) (int, error)

	// Exists reports whether a persisted snapshot is available.
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) error
	Save(ctx context.Context) error
}
