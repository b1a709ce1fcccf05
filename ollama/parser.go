package ollama

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/trickle"
)

// Interface compliance check.
var _ trickle.Parser = Parser{}

// Parser extracts message.content from one /api/chat line. Lines without a
// message object, including the server's {"error": ...} lines, are
// unparseable.
type Parser struct{}

// Parse implements [trickle.Parser].
func (Parser) Parse(payload string) trickle.Record {
	var chunk apiChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return trickle.RecordUnparseable{Err: err}
	}
	if chunk.Error != "" {
		return trickle.RecordUnparseable{Err: fmt.Errorf("ollama: %s: %w", chunk.Error, trickle.ErrMalformedRecord)}
	}
	if chunk.Message == nil {
		if chunk.Done {
			return trickle.RecordDelta{}
		}
		return trickle.RecordUnparseable{Err: errors.New("ollama: missing message")}
	}
	return trickle.RecordDelta{Text: chunk.Message.Content}
}
