package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"askpepper/types"

	"github.com/google/uuid"
)

// MemoryStore keeps every chunk in memory and persists them as a JSON snapshot.
type MemoryStore struct {
	path string

	mu     sync.RWMutex
	chunks map[uuid.UUID]types.Chunk
	order  []uuid.UUID
}

type snapshot struct {
	SimilarityFunction string        `json:"embedding_similarity_function"`
	Documents          []types.Chunk `json:"documents"`
}

func NewMemoryStore(path string) *MemoryStore {
	return &MemoryStore{
		path:   path,
		chunks: make(map[uuid.UUID]types.Chunk),
	}
}

func (s *MemoryStore) Path() string {
	return s.path
}

func (s *MemoryStore) WriteChunks(_ context.Context, chunks []types.Chunk, policy DuplicatePolicy) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, c := range chunks {
		if _, ok := s.chunks[c.ID]; ok {
			switch policy {
			case PolicySkip:
				continue
			case PolicyFail:
				return written, fmt.Errorf("%w: %s", ErrDuplicateChunk, c.ID)
			}
		} else {
			s.order = append(s.order, c.ID)
		}
		c.Score = 0
		s.chunks[c.ID] = c
		written++
	}
	return written, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Chunks returns the stored chunks in insertion order.
func (s *MemoryStore) Chunks() []types.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Chunk, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chunks[id])
	}
	return out
}

// Search ranks chunks by cosine similarity with queryVec. Ties keep insertion order.
func (s *MemoryStore) Search(_ context.Context, queryVec []float32, limit int) ([]types.Chunk, error) {
	if len(queryVec) == 0 {
		return nil, errors.New("empty query vector")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]types.Chunk, 0, len(s.order))
	for _, id := range s.order {
		c := s.chunks[id]
		if len(c.Embedding) != len(queryVec) {
			continue
		}
		c.Score = cosine(queryVec, c.Embedding)
		scored = append(scored, c)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStore) Exists(context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load replaces the store content with the snapshot on disk.
func (s *MemoryStore) Load(context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[uuid.UUID]types.Chunk, len(snap.Documents))
	s.order = s.order[:0]
	for _, c := range snap.Documents {
		if _, ok := s.chunks[c.ID]; !ok {
			s.order = append(s.order, c.ID)
		}
		s.chunks[c.ID] = c
	}
	log.Printf("[STORE] Loaded %d chunks from %s\n", len(s.order), s.path)
	return nil
}

// Save writes the snapshot atomically, creating the parent directory if needed.
func (s *MemoryStore) Save(context.Context) error {
	snap := snapshot{
		SimilarityFunction: "cosine",
		Documents:          s.Chunks(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	log.Printf("[STORE] Saved %d chunks to %s\n", len(snap.Documents), s.path)
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
