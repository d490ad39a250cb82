// Package robot drives the robot that speaks the answers.
package robot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"syscall"
	"time"
)

// Speaker says text out loud.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Pepper calls robot services through the HTTP bridge running next to NAOqi:
// POST /services/<service>/<method> with {"args": [...]}.
type Pepper struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type callRequest struct {
	Args []any `json:"args"`
}

// Connect reaches the robot at ip:port and prepares it to talk: face tracking
// on, tablet image hidden, slower speech, standing posture.
func Connect(ctx context.Context, ip string, port int) (*Pepper, error) {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	conn.Close()

	p := &Pepper{
		baseURL: "http://" + addr,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  slog.Default(),
	}
	setup := []struct {
		service, method string
		args            []any
	}{
		{"ALFaceDetection", "enableTracking", []any{true}},
		{"ALTabletService", "hideImage", nil},
		{"ALTextToSpeech", "setParameter", []any{"speed", 90}},
		{"ALRobotPosture", "goToPosture", []any{"StandInit", 0.5}},
	}
	for _, s := range setup {
		if err := p.Call(ctx, s.service, s.method, s.args...); err != nil {
			return nil, err
		}
	}
	p.logger.Info("connected to robot", "addr", addr)
	return p, nil
}

// MustConnect is Connect, except that a refused connection ends the process.
func MustConnect(ctx context.Context, ip string, port int) (*Pepper, error) {
	p, err := Connect(ctx, ip, port)
	if IsConnectionRefused(err) {
		log.Printf("Can't connect to Naoqi at ip %q on port %d.\nPlease check your settings (PEPPER_IP, PEPPER_PORT).\n", ip, port)
		os.Exit(1)
	}
	return p, err
}

func IsConnectionRefused(err error) bool {
	return err != nil && errors.Is(err, syscall.ECONNREFUSED)
}

// Call invokes method on a robot service.
func (p *Pepper) Call(ctx context.Context, service, method string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(callRequest{Args: args})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/services/%s/%s", p.baseURL, service, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", service, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s.%s %s: %s", service, method, resp.Status, string(b))
	}
	return nil
}

func (p *Pepper) Say(ctx context.Context, text string) error {
	p.logger.Info("tts", "text", text)
	return p.Call(ctx, "ALTextToSpeech", "say", text)
}

// LogSpeaker prints instead of speaking. Used when no robot is around.
type LogSpeaker struct {
	Logger *slog.Logger
}

func (l LogSpeaker) Say(_ context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("tts", "text", text)
	return nil
}
