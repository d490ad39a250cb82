package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiError Error
	if errors.As(err, &apiError) {
		return c.Status(apiError.Code).JSON(apiError)
	}
	var msgError MessageError
	if errors.As(err, &msgError) {
		return c.Status(msgError.Code).JSON(msgError)
	}
	var valError ValidationError
	if errors.As(err, &valError) {
		return c.Status(valError.Status).JSON(valError)
	}

	code := fiber.StatusInternalServerError
	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		code = fiberError.Code
	}
	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "code", code, "error", err)
	return c.Status(code).JSON(NewError(code, err.Error()))
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

// MessageError renders as {"message": ...}.
type MessageError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e MessageError) Error() string {
	return e.Message
}

func ErrNoFileSent() MessageError {
	return MessageError{
		Code:    fiber.StatusBadRequest,
		Message: "No file was sent.",
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}
