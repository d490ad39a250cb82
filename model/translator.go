package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"askpepper/types"
)

// Translator translates text in a fixed direction (English to Italian).
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// HFTranslator calls a hosted opus-mt translation model.
type HFTranslator struct {
	url    string
	token  string
	client *http.Client
}

type translationRequest struct {
	Inputs string `json:"inputs"`
}

type translationResult struct {
	TranslationText string `json:"translation_text"`
}

func NewHFTranslator(cfg types.TranslationConfig) *HFTranslator {
	return &HFTranslator{
		url:    cfg.Url,
		token:  cfg.Token,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *HFTranslator) Translate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(translationRequest{Inputs: text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("translation %s: %s", resp.Status, string(b))
	}

	var out []translationResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("translation decode: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("translation returned no results")
	}
	return out[0].TranslationText, nil
}
