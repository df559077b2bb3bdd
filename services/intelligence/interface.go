package intelligence

import "context"

// CompletionRequest is one single-shot prompt to a text model.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int32
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Hint tells the extractor which slot the user is answering.
type Hint string

const (
	HintDestination Hint = "destination"
	HintSource      Hint = "source"
	HintDate        Hint = "date"
	HintCorrection  Hint = "correction"
)

// PartialSlots is a best-effort extraction result; empty fields are unknown.
type PartialSlots struct {
	SourceCode      string `json:"src,omitempty"`
	DestinationCode string `json:"dst,omitempty"`
	StartDate       string `json:"startDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
}

// IsEmpty reports whether nothing was extracted.
func (p PartialSlots) IsEmpty() bool {
	return p == PartialSlots{}
}

// Extractor turns free text into partial booking slots. It never fails;
// anything it cannot read comes back as absent fields.
type Extractor interface {
	Extract(ctx context.Context, text string, hint Hint) PartialSlots
}

// Classifier decides whether free text is an affirmative answer.
type Classifier interface {
	IsAffirmative(ctx context.Context, text string) bool
}
