package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"askpepper/types"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
)

var (
	extraSpaceRe = regexp.MustCompile(`\s\s+`)

	// Terminal punctuation followed by whitespace ends a sentence, unless it
	// closes a common abbreviation ("Prof. Rossi", "pag. 3").
	sentenceEndRe = regexp2.MustCompile(
		`(?<!\b(?:Prof|Dott|Dott\.ssa|Dr|Ing|Sig|Sigg|Avv|Arch|ecc|pag|art|nr|n|es|Mr|Mrs|Ms|St|vs|etc))[.!?]+\s+`,
		regexp2.None)
)

// CleanText drops empty lines, collapses runs of whitespace and trims.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	text = strings.Join(kept, "\n")
	text = extraSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanDocuments applies CleanText to every document and skips those left empty.
func CleanDocuments(docs []types.Document) []types.Document {
	out := make([]types.Document, 0, len(docs))
	for _, d := range docs {
		d.Content = CleanText(d.Content)
		if d.Content == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

type Splitter struct {
	length int
}

// NewSplitter returns a splitter grouping length sentences per chunk.
func NewSplitter(length int) *Splitter {
	if length <= 0 {
		length = 2
	}
	return &Splitter{length: length}
}

// Sentences splits text into sentences. Each sentence keeps its punctuation and
// the whitespace that follows it, so joining them gives back the input.
func (s *Splitter) Sentences(text string) ([]string, error) {
	runes := []rune(text)
	var out []string
	last := 0
	m, err := sentenceEndRe.FindRunesMatch(runes)
	for m != nil && err == nil {
		end := m.Index + m.Length
		out = append(out, string(runes[last:end]))
		last = end
		m, err = sentenceEndRe.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("split sentences: %w", err)
	}
	if last < len(runes) {
		out = append(out, string(runes[last:]))
	}
	return out, nil
}

// Split cuts a document into chunks of s.length sentences without overlap.
func (s *Splitter) Split(doc types.Document) ([]types.Chunk, error) {
	sentences, err := s.Sentences(doc.Content)
	if err != nil {
		return nil, err
	}
	var chunks []types.Chunk
	for i := 0; i < len(sentences); i += s.length {
		end := min(i+s.length, len(sentences))
		content := strings.TrimSpace(strings.Join(sentences[i:end], ""))
		if content == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, types.Chunk{
			ID:      ChunkID(doc.URL, idx, content),
			DocID:   doc.ID,
			Index:   idx,
			Title:   doc.Title,
			URL:     doc.URL,
			Content: content,
		})
	}
	return chunks, nil
}

// SplitAll splits every document, preserving document order.
func (s *Splitter) SplitAll(docs []types.Document) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for _, d := range docs {
		c, err := s.Split(d)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", d.ID, err)
		}
		chunks = append(chunks, c...)
	}
	return chunks, nil
}

// ChunkID is stable for the same source, position and content, which lets the
// writer overwrite re-indexed chunks in place.
func ChunkID(url string, index int, content string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url+"#"+strconv.Itoa(index)+"\x00"+content))
}
