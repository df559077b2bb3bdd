package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const affirmationSystemPrompt = "You are an assistant that determines if the user's response is affirmative (yes) " +
	"or negative (no). Respond with 'yes' or 'no'."

type AffirmationClassifier struct {
	llm     Completer
	logger  *zap.Logger
	timeout time.Duration
}

func NewAffirmationClassifier(llm Completer, logger *zap.Logger, timeout time.Duration) *AffirmationClassifier {
	return &AffirmationClassifier{llm: llm, logger: logger, timeout: timeout}
}

// IsAffirmative is false on any model failure.
func (c *AffirmationClassifier) IsAffirmative(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	completion, err := c.llm.Complete(ctx, CompletionRequest{
		System:    affirmationSystemPrompt,
		Prompt:    fmt.Sprintf("Is the following response affirmative or negative? %q", text),
		MaxTokens: 10,
	})
	if err != nil {
		c.logger.Warn("Affirmation classification failed", zap.Error(err))
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(completion)), "yes")
}
