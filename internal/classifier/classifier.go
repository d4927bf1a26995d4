// Package classifier decides whether a user utterance can be answered
// immediately or needs a background research assignment.
package classifier

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"scout/internal/logger"
	"scout/internal/store"
)

// Kind is the classification branch. Exactly one branch applies to every
// utterance, never both, never neither.
type Kind string

const (
	KindImmediate Kind = "immediate"
	KindResearch  Kind = "research"
)

// Decision is the classifier output. Answer is set on the immediate branch;
// the assignment fields are set on the research branch.
type Decision struct {
	Kind   Kind
	Answer string

	Title       string
	Description string
	Query       string
	Type        store.AssignmentType
	Priority    int
}

// Answerer produces the answer text for the immediate branch. Backed by a
// language model in production; nil disables immediate answers entirely.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// FallbackAnswer is returned when the answerer is unavailable or errors.
// Failing closed to an immediate apology means user input is never dropped.
const FallbackAnswer = "Sorry, I couldn't look that up right now. Please try again in a moment."

// ErrEmptyUtterance is returned for blank input.
var ErrEmptyUtterance = errors.New("utterance is empty")

// DefaultAnswerTimeout bounds the answerer call.
const DefaultAnswerTimeout = 15 * time.Second

// Classifier applies the decision boundary and, on the immediate branch,
// asks the answerer for the reply text.
type Classifier struct {
	answerer Answerer
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a classifier. answerer may be nil; timeout <= 0 applies the default.
func New(answerer Answerer, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultAnswerTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{answerer: answerer, timeout: timeout, logger: logger}
}

// Classify returns exactly one of the two branches. The boundary itself is
// deterministic; only the immediate answer text involves the answerer, and
// any answerer failure falls back to a generic apology rather than losing
// the request.
func (c *Classifier) Classify(ctx context.Context, utterance string) (Decision, error) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return Decision{}, ErrEmptyUtterance
	}

	if NeedsResearch(trimmed) {
		return Decision{
			Kind:        KindResearch,
			Title:       deriveTitle(trimmed),
			Description: trimmed,
			Query:       trimmed,
			Type:        deriveType(trimmed),
			Priority:    derivePriority(trimmed),
		}, nil
	}

	return Decision{Kind: KindImmediate, Answer: c.answer(ctx, trimmed)}, nil
}

func (c *Classifier) answer(ctx context.Context, question string) string {
	if c.answerer == nil {
		return FallbackAnswer
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.answerer.Answer(ctx, question)
	if err != nil {
		logger.FromContext(ctx, c.logger).Warn("answerer failed, falling back to apology", "error", err)
		return FallbackAnswer
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackAnswer
	}
	return reply
}

// Research cues: requests to find, compare or collect multiple options, or
// anything needing investigation beyond a one-to-two sentence factual answer.
var researchPhrases = []string{
	"look for", "look up options", "list of", " vs ", "versus",
	"pros and cons", "put together",
}

var researchWords = map[string]bool{
	"find": true, "search": true, "compare": true, "collect": true,
	"gather": true, "research": true, "investigate": true,
	"recommend": true, "recommendations": true, "suggest": true,
	"suggestions": true, "best": true, "top": true, "cheapest": true,
	"affordable": true, "options": true, "alternatives": true,
	"ideas": true, "plan": true, "itinerary": true,
}

// countRequest matches "10 hotels", "5 best places" style multi-item asks.
var countRequest = regexp.MustCompile(`\b\d+\s+(?:best\s+|top\s+)?[a-z]+s\b`)

// NeedsResearch reports whether the utterance falls on the research side of
// the decision boundary. A single discrete factual question (what/who/when/
// where/how-many with a bounded answer) does not.
func NeedsResearch(utterance string) bool {
	lower := strings.ToLower(utterance)

	for _, p := range researchPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if researchWords[w] {
			return true
		}
	}
	return countRequest.MatchString(lower)
}

func deriveTitle(utterance string) string {
	title := strings.TrimRight(utterance, " .!?")
	runes := []rune(title)
	if len(runes) > 80 {
		title = string(runes[:77]) + "..."
	}
	return title
}

func deriveType(utterance string) store.AssignmentType {
	lower := strings.ToLower(utterance)
	switch {
	case strings.Contains(lower, "compare") || strings.Contains(lower, " vs ") || strings.Contains(lower, "versus"):
		return store.AssignmentTypeComparison
	case strings.Contains(lower, "look up") || strings.HasPrefix(lower, "check "):
		return store.AssignmentTypeLookup
	default:
		return store.AssignmentTypeResearch
	}
}

func derivePriority(utterance string) int {
	lower := strings.ToLower(utterance)
	if strings.Contains(lower, "urgent") || strings.Contains(lower, "asap") || strings.Contains(lower, "right away") {
		return 75
	}
	return 50
}
