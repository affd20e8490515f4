// Package summarize produces short natural-language summaries of document
// text through an OpenAI chat completion
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// SystemPrompt is the instruction sent ahead of every document
const SystemPrompt = "You are a concise summarizer."

const (
	DefaultModel     = openai.GPT4oMini
	DefaultMaxTokens = 150
)

// ErrNoChoices is returned when the completion contains no answer
var ErrNoChoices = errors.New("completion returned no choices")

// ChatAPI is the subset of the OpenAI client used here
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer summarizes text with a fixed model and token budget
type Summarizer struct {
	api       ChatAPI
	model     string
	maxTokens int
}

// New creates a Summarizer. An empty model or a zero token budget selects
// the defaults.
func New(api ChatAPI, model string, maxTokens int) *Summarizer {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Summarizer{api: api, model: model, maxTokens: maxTokens}
}

// NewClient creates an OpenAI client for the given API key
func NewClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// Summarize returns the model's summary of text, trimmed of surrounding whitespace
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize with %s: %w", s.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
