// Package client records a spoken question and walks it through the
// assistant's HTTP API: transcription, answer, speech.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"askpepper/types"
)

const DefaultAPIURL = "http://127.0.0.1:8000"

// StatusError is returned for any non-2xx answer from the API.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: request status %d: %s", e.Endpoint, e.Code, e.Body)
}

type APIClient struct {
	baseURL string
	c       *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		c:       &http.Client{Timeout: 120 * time.Second},
	}
}

// Transcribe uploads the WAV file at wavPath to /sr/.
func (a *APIClient) Transcribe(ctx context.Context, wavPath string) (*types.SpeechResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/sr/", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out types.SpeechResponse
	if err := a.do(req, "/sr/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query asks the assistant and returns the translated answer.
func (a *APIClient) Query(ctx context.Context, text string) (string, error) {
	req, err := a.get(ctx, "/query", url.Values{"query": {text}})
	if err != nil {
		return "", err
	}
	var answer string
	if err := a.do(req, "/query", &answer); err != nil {
		return "", err
	}
	return answer, nil
}

// Speak has the robot say text.
func (a *APIClient) Speak(ctx context.Context, text string) error {
	req, err := a.get(ctx, "/tts", url.Values{"text": {text}})
	if err != nil {
		return err
	}
	return a.do(req, "/tts", nil)
}

func (a *APIClient) get(ctx context.Context, path string, q url.Values) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+q.Encode(), nil)
}

func (a *APIClient) do(req *http.Request, endpoint string, out any) error {
	resp, err := a.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", endpoint, err)
	}
	return nil
}

// Session is one question asked out loud.
type Session struct {
	API          *APIClient
	Recorder     *Recorder
	OutputDir    string
	Duration     time.Duration
	UntilSilence bool
	Now          func() time.Time
	// Progress receives the lines shown to the user; nil discards them.
	Progress func(format string, args ...any)
}

type Result struct {
	WAVPath    string
	Transcript string
	Answer     string
}

// Run records, transcribes, queries and speaks, stopping at the first failure.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	progress := s.Progress
	if progress == nil {
		progress = func(string, ...any) {}
	}

	res := &Result{
		WAVPath: filepath.Join(s.OutputDir, now().Format("02012006_150405")+".wav"),
	}

	progress("Recording...\n")
	var (
		samples []int16
		err     error
	)
	if s.UntilSilence {
		samples, err = s.Recorder.RecordUntilSilence(ctx, DefaultSilenceDuration, DefaultSilenceThreshold)
	} else {
		samples, err = s.Recorder.Record(ctx, s.Duration)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.WriteWAV(res.WAVPath, samples); err != nil {
		return nil, fmt.Errorf("save recording: %w", err)
	}

	sr, err := s.API.Transcribe(ctx, res.WAVPath)
	if err != nil {
		return nil, err
	}
	res.Transcript = sr.Text
	progress("Frase riconosciuta: %s\n", res.Transcript)

	res.Answer, err = s.API.Query(ctx, res.Transcript)
	if err != nil {
		return nil, err
	}
	progress("\nRisposta: %s\n", res.Answer)

	if err := s.API.Speak(ctx, res.Answer); err != nil {
		return nil, err
	}
	return res, nil
}
