package server

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"time"

	"askpepper/app/agent"
	"askpepper/app/api"
	"askpepper/app/middleware"
	"askpepper/loader/service"
	"askpepper/model"
	"askpepper/robot"
	"askpepper/speech"
	"askpepper/types"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    32 * 1024 * 1024,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger

	mu         sync.Mutex
	stopped    bool
	app        *fiber.App
	closeStore func()
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

// Stop may be called at any point of Run, including during start-up.
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopped = true
	app, closeStore := s.app, s.closeStore
	s.app, s.closeStore = nil, nil
	s.mu.Unlock()

	if app != nil {
		if err := app.Shutdown(); err != nil {
			s.logger.Error("error to shut down server", "error", err.Error())
		}
	}
	if closeStore != nil {
		closeStore()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run(ctx context.Context) {
	start := time.Now()
	cfg := types.LoadConfig()

	embedder := model.NewEmbedder(cfg.Embedding)
	st, closeStore, err := service.Build(ctx, cfg, embedder)
	if err != nil {
		s.fatal(ctx, "error to set up document store: ", err)
		return
	}
	if !s.keepStore(closeStore) {
		return
	}

	recognizer, err := speech.NewGoogleRecognizer(ctx, cfg.Speech.APIKey, cfg.Speech.Language)
	if err != nil {
		s.fatal(ctx, "error to create speech client: ", err)
		return
	}

	var speaker robot.Speaker = robot.LogSpeaker{Logger: s.logger}
	if cfg.Robot.Backend == "pepper" {
		pepper, err := robot.MustConnect(ctx, cfg.Robot.IP, cfg.Robot.Port)
		if err != nil {
			s.fatal(ctx, "error to set up robot: ", err)
			return
		}
		speaker = pepper
	}

	var (
		queryAgent = agent.New(embedder, st, model.NewOllamaGenerator(cfg.LLM), cfg.TopK)
		translator = model.NewHFTranslator(cfg.Translate)
		app        = newApp(s.logger, recognizer, queryAgent, translator, speaker)
	)
	if !s.keepApp(app) {
		return
	}
	log.Printf("Initialized server in %.2fs\n", time.Since(start).Seconds())

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

// fatal ends the process, unless start-up failed because it was cancelled.
func (s *Server) fatal(ctx context.Context, msg string, err error) {
	if ctx.Err() != nil {
		s.logger.Info("start-up cancelled", "error", err.Error())
		return
	}
	log.Fatal(msg, err)
}

// keepStore hands closeStore to Stop. Once stopped, the store is closed at
// once and false is returned.
func (s *Server) keepStore(closeStore func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		closeStore()
		return false
	}
	s.closeStore = closeStore
	return true
}

func (s *Server) keepApp(app *fiber.App) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.app = app
	return true
}

func newApp(logger *slog.Logger, recognizer speech.Recognizer, answerer api.Answerer, translator model.Translator, speaker robot.Speaker) *fiber.App {
	var (
		app            = fiber.New(config)
		checkHandler   = api.NewCheckHandler()
		speechHandler  = api.NewSpeechHandler(recognizer)
		requestHandler = api.NewRequestHandler(answerer, translator)
		ttsHandler     = api.NewTTSHandler(speaker)
		check          = app.Group("/check")
	)

	app.Use(middleware.RequestLogger(logger))

	check.Get("/healthy", checkHandler.HandleHealthy)
	app.Post("/sr/", speechHandler.HandleSpeech)
	app.Get("/query", requestHandler.HandleQuery)
	app.Get("/tts", ttsHandler.HandleTTS)

	return app
}
