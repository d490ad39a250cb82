package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// Pointer fields tell an empty value (?query=) apart from a missing one.
type QueryParams struct {
	Query *string `query:"query" validate:"required"`
}

type TTSParams struct {
	Text *string `query:"text" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *QueryParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *TTSParams) Validate() map[string]string {
	return validateStruct(params)
}

var validate = validator.New()

func validateStruct(s any) map[string]string {
	if err := validate.Struct(s); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"request": err.Error()}
		}
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

// SpeechResponse is the body returned by the speech recognition endpoint.
type SpeechResponse struct {
	Text     string `json:"text"`
	Name     string `json:"name"`
	FileSize int    `json:"file_size"`
}
