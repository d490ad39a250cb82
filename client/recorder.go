package client

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultChannels         = 2
	DefaultRate             = 44100
	DefaultChunk            = 1024
	DefaultSeconds          = 5
	DefaultSilenceThreshold = 500
	DefaultSilenceDuration  = 3 * time.Second
)

// FrameReader yields interleaved 16-bit samples, one buffer of Chunk frames
// per call.
type FrameReader interface {
	ReadChunk() ([]int16, error)
}

type Recorder struct {
	Source   FrameReader
	Channels int
	Rate     int
	Chunk    int
}

func NewRecorder(src FrameReader) *Recorder {
	return &Recorder{
		Source:   src,
		Channels: DefaultChannels,
		Rate:     DefaultRate,
		Chunk:    DefaultChunk,
	}
}

// buffers returns how many Chunk-sized reads cover d.
func (r *Recorder) buffers(d time.Duration) int {
	return int(float64(r.Rate) / float64(r.Chunk) * d.Seconds())
}

// Record reads for a fixed duration.
func (r *Recorder) Record(ctx context.Context, d time.Duration) ([]int16, error) {
	n := r.buffers(d)
	samples := make([]int16, 0, n*r.Chunk*r.Channels)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, err := r.Source.ReadChunk()
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		samples = append(samples, buf...)
	}
	return samples, nil
}

// RecordUntilSilence reads until more than silence worth of consecutive
// buffers have an RMS below threshold.
func (r *Recorder) RecordUntilSilence(ctx context.Context, silence time.Duration, threshold float64) ([]int16, error) {
	limit := r.buffers(silence)
	var (
		samples []int16
		quiet   int
	)
	for quiet <= limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, err := r.Source.ReadChunk()
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		samples = append(samples, buf...)

		if RMS(buf) < threshold {
			quiet++
		} else {
			quiet = 0
		}
	}
	return samples, nil
}

// WriteWAV stores samples as 16-bit PCM at path.
func (r *Recorder) WriteWAV(path string, samples []int16) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	enc := wav.NewEncoder(f, r.Rate, 16, r.Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: r.Channels, SampleRate: r.Rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
