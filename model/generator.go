package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"askpepper/types"
)

// Generator produces a completion for an already rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OllamaGenerator talks to the Ollama generate API. The prompt is sent raw
// because it already carries the chat markup of the model.
type OllamaGenerator struct {
	URL       string
	Model     string
	MaxTokens int

	client *http.Client
	tokens func(string) (int, error)
}

type GenerateOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Raw     bool            `json:"raw"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

type GenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaGenerator(cfg types.LLMConfig) *OllamaGenerator {
	return &OllamaGenerator{
		URL:       cfg.Url,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: 5 * time.Minute},
		tokens:    CountTokens,
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		log.Printf("[LLM] answer took %v\n", time.Since(start))
	}()

	if g.tokens != nil {
		if count, err := g.tokens(prompt); err == nil {
			log.Printf("[LLM] prompt size: %d tokens, %d symbols\n", count, len(prompt))
		}
	}

	reqBody, err := json.Marshal(GenerateRequest{
		Model:   g.Model,
		Prompt:  prompt,
		Raw:     true,
		Stream:  true,
		Options: GenerateOptions{NumPredict: g.MaxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama generate error: status %d, body: %s", resp.StatusCode, string(body))
	}

	// streamed answers arrive as one JSON object per line
	decoder := json.NewDecoder(resp.Body)
	var b strings.Builder
	for {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama generate error: %s", chunk.Error)
		}

		b.WriteString(chunk.Response)

		if chunk.Done {
			break
		}
	}
	return strings.TrimSpace(b.String()), nil
}
