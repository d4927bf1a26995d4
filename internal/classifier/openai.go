package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultAnswerModel is used when no model is configured.
	DefaultAnswerModel = "gpt-4o-mini"

	answerSystemPrompt = "You are a concise personal assistant. Answer the user's factual question in one or two sentences. If you do not know, say so plainly."
)

// ErrAPIKeyNotSet is returned when the OpenAI API key is missing.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// OpenAIAnswerer answers immediate questions with a chat completion call.
type OpenAIAnswerer struct {
	client openai.Client
	model  string
}

// NewOpenAIAnswerer creates an answerer for the given API key and model.
func NewOpenAIAnswerer(apiKey, model string) (*OpenAIAnswerer, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultAnswerModel
	}
	return &OpenAIAnswerer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Answer implements Answerer.
func (a *OpenAIAnswerer) Answer(ctx context.Context, question string) (string, error) {
	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(answerSystemPrompt),
			openai.UserMessage(question),
		},
	})
	if err != nil {
		return "", fmt.Errorf("answer call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
