// Package mic captures audio from the default input device.
package mic

import (
	"github.com/gordonklaus/portaudio"
)

type Mic struct {
	stream *portaudio.Stream
	buf    []int16
}

// Open starts capturing channels x 16-bit samples at rate, chunk frames at a
// time. Close must be called to release the device.
func Open(channels, rate, chunk int) (*Mic, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	m := &Mic{buf: make([]int16, chunk*channels)}
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(rate), chunk, m.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	m.stream = stream
	return m, nil
}

func (m *Mic) ReadChunk() ([]int16, error) {
	if err := m.stream.Read(); err != nil {
		return nil, err
	}
	out := make([]int16, len(m.buf))
	copy(out, m.buf)
	return out, nil
}

func (m *Mic) Close() error {
	stopErr := m.stream.Stop()
	closeErr := m.stream.Close()
	termErr := portaudio.Terminate()
	for _, err := range []error{stopErr, closeErr, termErr} {
		if err != nil {
			return err
		}
	}
	return nil
}
