package api

import (
	"askpepper/robot"
	"askpepper/types"

	"github.com/gofiber/fiber/v2"
)

type TTSHandler struct {
	speaker robot.Speaker
}

func NewTTSHandler(s robot.Speaker) *TTSHandler {
	return &TTSHandler{speaker: s}
}

// HandleTTS makes the robot say ?text=. The body is always null.
func (h *TTSHandler) HandleTTS(c *fiber.Ctx) error {
	params := types.TTSParams{Text: queryParam(c, "text")}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	if err := h.speaker.Say(c.UserContext(), *params.Text); err != nil {
		return err
	}
	return c.JSON(nil)
}
