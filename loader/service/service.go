package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"sync/atomic"

	"askpepper/loader/internal"
	"askpepper/model"
	"askpepper/pipeline"
	"askpepper/store"
	"askpepper/types"
)

// indexState carries the named inputs and outputs of the indexing stages.
type indexState struct {
	Documents []types.Document
	Cleaned   []types.Document
	Chunks    []types.Chunk
	Store     store.DBStorer
	Written   int
}

// Service builds the document store: it loads an existing snapshot or indexes
// the documents and persists the result.
type Service struct {
	logger   *slog.Logger
	embedder model.Embedder
	splitter *internal.Splitter
	indexing *pipeline.Pipeline[indexState]

	indexRuns atomic.Int64
}

func New(embedder model.Embedder, splitLength int) *Service {
	s := &Service{
		logger:   slog.Default(),
		embedder: embedder,
		splitter: internal.NewSplitter(splitLength),
	}
	s.indexing = pipeline.New[indexState]("indexing").
		Add("cleaner", s.clean).
		Add("splitter", s.split).
		Add("doc_embedder", s.embed).
		Add("writer", s.write)
	return s
}

// IndexRuns reports how many times the indexing pipeline ran.
func (s *Service) IndexRuns() int {
	return int(s.indexRuns.Load())
}

// SetupDocumentStore returns st ready to query. When st already has a snapshot
// it is loaded as is and docs is ignored, even if it no longer matches.
func (s *Service) SetupDocumentStore(ctx context.Context, docs []types.Document, st store.DBStorer) (store.DBStorer, error) {
	s.logger.Info("setting up document store")

	exists, err := st.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check snapshot: %w", err)
	}
	if exists {
		s.logger.Info("loading document store from disk")
		if err := st.Load(ctx); err != nil {
			return nil, err
		}
		return st, nil
	}

	if _, err := s.Index(ctx, docs, st); err != nil {
		return nil, err
	}
	if err := st.Save(ctx); err != nil {
		return nil, fmt.Errorf("save document store: %w", err)
	}
	return st, nil
}

// SetupMemoryStore is SetupDocumentStore over a JSON snapshot at path.
func (s *Service) SetupMemoryStore(ctx context.Context, docs []types.Document, path string) (*store.MemoryStore, error) {
	st := store.NewMemoryStore(path)
	if _, err := s.SetupDocumentStore(ctx, docs, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Index runs cleaner, splitter, embedder and writer over docs and returns the
// number of chunks written.
func (s *Service) Index(ctx context.Context, docs []types.Document, st store.DBStorer) (int, error) {
	s.indexRuns.Add(1)
	state := &indexState{Documents: docs, Store: st}
	if err := s.indexing.Run(ctx, state); err != nil {
		return 0, err
	}
	s.logger.Info("indexing done", "documents", len(state.Cleaned), "chunks", len(state.Chunks), "written", state.Written)
	return state.Written, nil
}

func (s *Service) clean(_ context.Context, st *indexState) error {
	st.Cleaned = internal.CleanDocuments(st.Documents)
	return nil
}

func (s *Service) split(_ context.Context, st *indexState) error {
	chunks, err := s.splitter.SplitAll(st.Cleaned)
	if err != nil {
		return err
	}
	st.Chunks = chunks
	return nil
}

func (s *Service) embed(ctx context.Context, st *indexState) error {
	for i := range st.Chunks {
		emb, err := s.embedder.Embed(ctx, st.Chunks[i].EmbeddingText())
		if err != nil {
			return fmt.Errorf("chunk %d of %s: %w", st.Chunks[i].Index, st.Chunks[i].URL, err)
		}
		st.Chunks[i].Embedding = emb
		if (i+1)%100 == 0 {
			log.Printf("[EMBEDDER] Embedded %d/%d chunks\n", i+1, len(st.Chunks))
		}
	}
	return nil
}

func (s *Service) write(ctx context.Context, st *indexState) error {
	n, err := st.Store.WriteChunks(ctx, st.Chunks, store.PolicyOverwrite)
	if err != nil {
		return err
	}
	st.Written = n
	return nil
}
