package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct{}

func (stubRecognizer) Recognize(context.Context, []byte) (string, error) { return "ciao", nil }

type stubAnswerer struct{}

func (stubAnswerer) Answer(context.Context, string) (string, error) { return "hello", nil }

type stubTranslator struct{}

func (stubTranslator) Translate(context.Context, string) (string, error) { return "ciao", nil }

type stubSpeaker struct{ said string }

func (s *stubSpeaker) Say(_ context.Context, text string) error {
	s.said = text
	return nil
}

func TestRoutes(t *testing.T) {
	var logs bytes.Buffer
	speaker := &stubSpeaker{}
	app := newApp(slog.New(slog.NewTextHandler(&logs, nil)), stubRecognizer{}, stubAnswerer{}, stubTranslator{}, speaker)

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", "q.wav")
	require.NoError(t, err)
	_, err = fw.Write([]byte("RIFFdata"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/sr/", &b)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	got, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"text":"ciao","name":"q.wav","file_size":8}`, string(got))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/query?query=hi", nil))
	require.NoError(t, err)
	got, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `"ciao"`, string(got))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/tts?text=ciao", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ciao", speaker.said)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/check/healthy", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, logs.String(), "path=/query")
}

func TestStopBeforeStartupFinishes(t *testing.T) {
	s := NewServer(":0")
	s.Stop()

	closed := false
	assert.False(t, s.keepStore(func() { closed = true }))
	assert.True(t, closed)
	assert.False(t, s.keepApp(newApp(slog.Default(), stubRecognizer{}, stubAnswerer{}, stubTranslator{}, &stubSpeaker{})))
}

func TestStopReleasesStore(t *testing.T) {
	s := NewServer(":0")
	closed := false
	require.True(t, s.keepStore(func() { closed = true }))
	s.Stop()
	assert.True(t, closed)

	// a second Stop has nothing left to release
	closed = false
	s.Stop()
	assert.False(t, closed)
}

func TestRunCancelledDuringStartup(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DATASET_PATH", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "store.json"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewServer(":0")
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
