package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const extractionSystemPrompt = "You are an assistant that extracts flight information from user input. " +
	"If the user specifies a city or common name of an airport, return the corresponding IATA airport code."

// SlotExtractor asks a completion model for src/dst/startDate/endDate as JSON.
type SlotExtractor struct {
	llm     Completer
	logger  *zap.Logger
	timeout time.Duration
	loc     *time.Location
	now     func() time.Time
}

func NewSlotExtractor(llm Completer, logger *zap.Logger, timeout time.Duration, loc *time.Location) *SlotExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotExtractor{llm: llm, logger: logger, timeout: timeout, loc: loc, now: time.Now}
}

func (e *SlotExtractor) Extract(ctx context.Context, text string, hint Hint) PartialSlots {
	if strings.TrimSpace(text) == "" {
		return PartialSlots{}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	completion, err := e.llm.Complete(ctx, CompletionRequest{
		System:    extractionSystemPrompt,
		Prompt:    e.prompt(text, hint),
		MaxTokens: 200,
	})
	if err != nil {
		e.logger.Warn("Slot extraction failed", zap.String("hint", string(hint)), zap.Error(err))
		return PartialSlots{}
	}

	slots, err := parseSlots(completion)
	if err != nil {
		e.logger.Warn("Unparsable extraction response",
			zap.String("hint", string(hint)),
			zap.String("completion", completion),
			zap.Error(err),
		)
		return PartialSlots{}
	}
	return slots
}

func (e *SlotExtractor) prompt(text string, hint Hint) string {
	today := e.now().In(e.loc).Format(dateLayout)
	return fmt.Sprintf(
		"Extract any available flight details (source airport, destination airport, start date, end date) "+
			"from the following input: %q. Return the information in JSON format with any of \"src\", \"dst\", "+
			"\"startDate\", and \"endDate\" that are present, using YYYY-MM-DD dates. If there is only one date, "+
			"set the same value for \"startDate\" and \"endDate\". Ensure the dates are not before today's date (%s).",
		labelInput(text, hint), today,
	)
}

func labelInput(text string, hint Hint) string {
	switch hint {
	case HintDestination:
		return "Destination: " + text
	case HintSource:
		return "Source: " + text
	case HintDate:
		return "Date: " + text
	default:
		return text
	}
}

const dateLayout = "2006-01-02"

type rawSlots struct {
	Src       *string `json:"src"`
	Dst       *string `json:"dst"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// parseSlots reads the JSON object spanning the first '{' to the last '}'.
func parseSlots(completion string) (PartialSlots, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start == -1 || end == -1 || end < start {
		return PartialSlots{}, fmt.Errorf("no JSON object in completion")
	}

	var raw rawSlots
	if err := json.Unmarshal([]byte(completion[start:end+1]), &raw); err != nil {
		return PartialSlots{}, err
	}

	return PartialSlots{
		SourceCode:      normaliseCode(raw.Src),
		DestinationCode: normaliseCode(raw.Dst),
		StartDate:       trimmed(raw.StartDate),
		EndDate:         trimmed(raw.EndDate),
	}, nil
}

func normaliseCode(v *string) string {
	code := strings.ToUpper(trimmed(v))
	if len(code) != 3 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
