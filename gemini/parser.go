package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/trickle"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ trickle.Parser = Parser{}

// Parser extracts reply text from one streamGenerateContent chunk. The text
// parts of the first candidate are concatenated in order; thought parts and
// further candidates are ignored.
type Parser struct{}

// Parse implements [trickle.Parser].
func (Parser) Parse(payload string) trickle.Record {
	var resp genai.GenerateContentResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return trickle.RecordUnparseable{Err: err}
	}

	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return trickle.RecordUnparseable{
				Err: fmt.Errorf("gemini: prompt blocked: %s: %w", fb.BlockReason, trickle.ErrMalformedRecord),
			}
		}
		if resp.UsageMetadata != nil {
			return trickle.RecordDelta{}
		}
		return trickle.RecordUnparseable{Err: fmt.Errorf("gemini: no candidates: %w", trickle.ErrMalformedRecord)}
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return trickle.RecordDelta{}
	}
	var sb strings.Builder
	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return trickle.RecordDelta{Text: sb.String()}
}
