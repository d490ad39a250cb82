// Package speech transcribes uploaded audio clips.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-audio/wav"
	speechapi "google.golang.org/api/speech/v1"
	"google.golang.org/api/option"
)

var (
	ErrNotWAV   = errors.New("audio is not a PCM WAV stream")
	ErrNoSpeech = errors.New("no speech recognized")
)

// Recognizer turns a WAV clip into text.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}

// Format describes the PCM stream of a WAV clip.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// InspectWAV reads the WAV header of audio.
func InspectWAV(audio []byte) (Format, error) {
	d := wav.NewDecoder(bytes.NewReader(audio))
	if !d.IsValidFile() {
		return Format{}, ErrNotWAV
	}
	if d.WavAudioFormat != 1 {
		return Format{}, fmt.Errorf("%w: format tag %d", ErrNotWAV, d.WavAudioFormat)
	}
	return Format{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}, nil
}

// GoogleRecognizer uses the Cloud Speech-to-Text REST API.
type GoogleRecognizer struct {
	svc      *speechapi.Service
	language string
}

func NewGoogleRecognizer(ctx context.Context, apiKey, language string, opts ...option.ClientOption) (*GoogleRecognizer, error) {
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := speechapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleRecognizer{svc: svc, language: language}, nil
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte) (string, error) {
	f, err := InspectWAV(audio)
	if err != nil {
		return "", err
	}
	if f.BitDepth != 16 {
		return "", fmt.Errorf("%w: %d-bit samples, want 16", ErrNotWAV, f.BitDepth)
	}

	req := &speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:          "LINEAR16",
			SampleRateHertz:   int64(f.SampleRate),
			AudioChannelCount: int64(f.Channels),
			LanguageCode:      g.language,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}
	resp, err := g.svc.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}
