package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	researchSystemPrompt = "You are a research assistant. Investigate the user's request and reply with a concise, well-organized summary of your findings. Use a short list when the request asks for multiple options."
)

// ErrAPIKeyNotSet is returned when the OpenAI API key is missing.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// OpenAIResearcher implements Researcher with a chat completion call.
type OpenAIResearcher struct {
	client openai.Client
	model  string
}

// NewOpenAIResearcher creates a researcher for the given API key and model.
func NewOpenAIResearcher(apiKey, model string) (*OpenAIResearcher, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIResearcher{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Research implements Researcher. API failures are classified into the
// transient/permanent taxonomy so the processor can decide retry behavior.
func (r *OpenAIResearcher) Research(ctx context.Context, query string) (string, error) {
	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(researchSystemPrompt),
			openai.UserMessage(query),
		},
	})
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(completion.Choices) == 0 {
		return "", Transient(fmt.Errorf("no completion choices returned"))
	}

	findings := strings.TrimSpace(completion.Choices[0].Message.Content)
	if findings == "" {
		return "", Transient(fmt.Errorf("empty findings returned"))
	}
	return findings, nil
}

// classifyAPIError maps OpenAI SDK errors onto the retry taxonomy.
// Rate limits, timeouts and upstream 5xx are transient; other 4xx responses
// mean the request itself is bad and will not improve on retry.
func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient(err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return Transient(err)
		case apiErr.StatusCode >= 500:
			return Transient(err)
		case apiErr.StatusCode >= 400:
			return Permanent(err)
		}
	}

	// Network-level failures without a response.
	return Transient(err)
}
