package model

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// CountTokens estimates the prompt size. The encoding is fetched once and reused.
func CountTokens(text string) (int, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.EncodingForModel("gpt-3.5-turbo") // close enough for llama-family models
	})
	if encErr != nil {
		return 0, encErr
	}
	return len(enc.Encode(text, nil, nil)), nil
}
