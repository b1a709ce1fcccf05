package openai

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/trickle"
)

// Interface compliance check.
var _ trickle.Parser = Parser{}

// Parser extracts choices[0].delta.content from one completion chunk.
// Chunks without choices (usage summaries) are empty deltas; error objects
// are unparseable.
type Parser struct{}

// Parse implements [trickle.Parser].
func (Parser) Parse(payload string) trickle.Record {
	var chunk apiChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return trickle.RecordUnparseable{Err: err}
	}
	if chunk.Error != nil {
		return trickle.RecordUnparseable{Err: fmt.Errorf("openai: %s: %w", chunk.Error.Message, trickle.ErrMalformedRecord)}
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == nil {
		return trickle.RecordDelta{}
	}
	return trickle.RecordDelta{Text: *chunk.Choices[0].Delta.Content}
}
