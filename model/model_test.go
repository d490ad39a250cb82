package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"askpepper/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedderNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OllamaEmbeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gte-large", req.Model)
		assert.Equal(t, "ciao", req.Prompt)
		_ = json.NewEncoder(w).Encode(OllamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	emb, err := NewOllamaEmbedder(srv.URL, "gte-large").Embed(context.Background(), "ciao")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, emb, 1e-6)
}

func TestOllamaEmbedderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "missing").Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding": []}`)
	}))
	defer empty.Close()
	_, err = NewOllamaEmbedder(empty.URL, "m").Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestOllamaGeneratorStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Raw)
		assert.Equal(t, 100, req.Options.NumPredict)
		assert.Equal(t, "zephyr", req.Model)
		fmt.Fprintln(w, `{"response":" The course","done":false}`)
		fmt.Fprintln(w, `{"response":" covers data.","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
		fmt.Fprintln(w, `{"response":"ignored","done":false}`)
	}))
	defer srv.Close()

	g := &OllamaGenerator{URL: srv.URL, Model: "zephyr", MaxTokens: 100}
	out, err := g.Generate(context.Background(), "<|user|>hi")
	require.NoError(t, err)
	assert.Equal(t, "The course covers data.", out)
}

func TestOllamaGeneratorReportsStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	}))
	defer srv.Close()

	g := &OllamaGenerator{URL: srv.URL, Model: "zephyr"}
	_, err := g.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestHFTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req translationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Good morning", req.Inputs)
		fmt.Fprint(w, `[{"translation_text":"Buongiorno"}]`)
	}))
	defer srv.Close()

	tr := NewHFTranslator(types.TranslationConfig{Url: srv.URL, Token: "secret"})
	out, err := tr.Translate(context.Background(), "Good morning")
	require.NoError(t, err)
	assert.Equal(t, "Buongiorno", out)
}

func TestHFTranslatorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/loading":
			http.Error(w, `{"error":"Model is currently loading"}`, http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()

	_, err := NewHFTranslator(types.TranslationConfig{Url: srv.URL + "/loading"}).Translate(context.Background(), "x")
	assert.Error(t, err)
	_, err = NewHFTranslator(types.TranslationConfig{Url: srv.URL + "/empty"}).Translate(context.Background(), "x")
	assert.Error(t, err)
}
