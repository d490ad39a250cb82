package types

import (
	"github.com/google/uuid"
)

// RawRecord is one row of the source dataset.
type RawRecord struct {
	Title   string
	Address string
	Text    string
}

// Document is a cleaned record ready for indexing.
type Document struct {
	ID      uuid.UUID
	Title   string
	URL     string
	Content string
}

// Chunk is a split of a document as it lives in the document store.
type Chunk struct {
	ID        uuid.UUID `json:"id"`
	DocID     uuid.UUID `json:"doc_id"`
	Index     int       `json:"split_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	Score     float64   `json:"score,omitempty"` // cosine similarity, search results only
}

// EmbeddingText is the text fed to the embedder: the title is embedded as metadata.
func (c Chunk) EmbeddingText() string {
	if c.Title == "" {
		return c.Content
	}
	return c.Title + "\n" + c.Content
}
