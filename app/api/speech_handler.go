package api

import (
	"io"
	"log/slog"
	"strings"

	"askpepper/speech"
	"askpepper/types"

	"github.com/gofiber/fiber/v2"
)

type SpeechHandler struct {
	recognizer speech.Recognizer
	logger     *slog.Logger
}

func NewSpeechHandler(r speech.Recognizer) *SpeechHandler {
	return &SpeechHandler{
		recognizer: r,
		logger:     slog.Default(),
	}
}

// HandleSpeech transcribes the uploaded "file" field.
func (h *SpeechHandler) HandleSpeech(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrNoFileSent()
	}

	h.logger.Info(strings.Repeat("#", 80))
	h.logger.Info("performing speech processing", "file", fileHeader.Filename)
	h.logger.Info(strings.Repeat("#", 80))

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	text, err := h.recognizer.Recognize(c.UserContext(), data)
	if err != nil {
		return err
	}

	return c.JSON(types.SpeechResponse{
		Text:     text,
		Name:     fileHeader.Filename,
		FileSize: len(data),
	})
}
