package api

import (
	"context"
	"log"

	"askpepper/model"
	"askpepper/types"

	"github.com/gofiber/fiber/v2"
)

// Answerer produces an untranslated answer for a question.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

type RequestHandler struct {
	agent      Answerer
	translator model.Translator
}

func NewRequestHandler(agent Answerer, translator model.Translator) *RequestHandler {
	return &RequestHandler{
		agent:      agent,
		translator: translator,
	}
}

// HandleQuery answers ?query= and returns the translated answer as a JSON string.
func (h *RequestHandler) HandleQuery(c *fiber.Ctx) error {
	params := types.QueryParams{Query: queryParam(c, "query")}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx := c.UserContext()
	output, err := h.agent.Answer(ctx, *params.Query)
	if err != nil {
		return err
	}

	translated, err := h.translator.Translate(ctx, output)
	if err != nil {
		return err
	}
	log.Printf("[QUERY] %q -> %q\n", *params.Query, translated)

	return c.JSON(translated)
}

// queryParam returns nil when key is absent from the query string, and a
// pointer to the (possibly empty) value otherwise.
func queryParam(c *fiber.Ctx, key string) *string {
	args := c.Context().QueryArgs()
	if !args.Has(key) {
		return nil
	}
	v := string(args.Peek(key))
	return &v
}
