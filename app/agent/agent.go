package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"text/template"
	"time"

	"askpepper/model"
	"askpepper/pipeline"
	"askpepper/store"
	"askpepper/types"
)

const DefaultTopK = 5

// Zephyr chat markup. Each retrieved chunk is listed with its source URL.
const promptTemplate = `<|system|>Using the information contained in the context, give a comprehensive answer to the question.
If the answer is contained in the context, also report the source URL.
If the answer cannot be deduced from the context, do not give an answer.</s>
<|user|>
Context:
{{- range .Documents }}
{{ .Content }} URL:{{ .URL }}
{{- end }};
Question: {{ .Query }}
</s>
<|assistant|>
`

// QueryState holds the named inputs and outputs of the answer stages.
type QueryState struct {
	Query     string
	Embedding []float32
	Documents []types.Chunk
	Prompt    string
	Replies   []string
}

type Agent struct {
	embedder  model.Embedder
	retriever store.Searcher
	generator model.Generator
	prompt    *template.Template
	topK      int
	pipeline  *pipeline.Pipeline[QueryState]
}

func New(embedder model.Embedder, retriever store.Searcher, generator model.Generator, topK int) *Agent {
	if topK <= 0 {
		topK = DefaultTopK
	}
	a := &Agent{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		prompt:    template.Must(template.New("prompt").Parse(promptTemplate)),
		topK:      topK,
	}
	a.pipeline = pipeline.New[QueryState]("query").
		Add("text_embedder", a.embedQuery).
		Add("retriever", a.retrieve).
		Add("prompt_builder", a.buildPrompt).
		Add("llm", a.generate)
	return a
}

// Answer runs the query through embedder, retriever, prompt builder and
// generator, and returns the first reply.
func (a *Agent) Answer(ctx context.Context, query string) (string, error) {
	start := time.Now()
	state, err := a.Run(ctx, query)
	if err != nil {
		return "", err
	}
	log.Printf("[AGENT] %d documents, answer in %v\n", len(state.Documents), time.Since(start))
	if len(state.Replies) == 0 {
		return "", errors.New("generator returned no replies")
	}
	return state.Replies[0], nil
}

// Run exposes the full state of a query, including the retrieved documents and the prompt.
func (a *Agent) Run(ctx context.Context, query string) (*QueryState, error) {
	state := &QueryState{Query: query}
	if err := a.pipeline.Run(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// RenderPrompt fills the template with the retrieved documents and the question.
func (a *Agent) RenderPrompt(query string, docs []types.Chunk) (string, error) {
	var sb strings.Builder
	err := a.prompt.Execute(&sb, struct {
		Query     string
		Documents []types.Chunk
	}{query, docs})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

func (a *Agent) embedQuery(ctx context.Context, s *QueryState) error {
	emb, err := a.embedder.Embed(ctx, s.Query)
	if err != nil {
		return err
	}
	s.Embedding = emb
	return nil
}

func (a *Agent) retrieve(ctx context.Context, s *QueryState) error {
	docs, err := a.retriever.Search(ctx, s.Embedding, a.topK)
	if err != nil {
		return err
	}
	s.Documents = docs
	return nil
}

func (a *Agent) buildPrompt(_ context.Context, s *QueryState) error {
	p, err := a.RenderPrompt(s.Query, s.Documents)
	if err != nil {
		return err
	}
	s.Prompt = p
	return nil
}

func (a *Agent) generate(ctx context.Context, s *QueryState) error {
	reply, err := a.generator.Generate(ctx, s.Prompt)
	if err != nil {
		return err
	}
	s.Replies = append(s.Replies, reply)
	return nil
}
