package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/trickle"
)

// Interface compliance check.
var _ trickle.Parser = Parser{}

// Parser maps one Messages API event to a record:
//   - content_block_delta with a text_delta: the delta text
//   - message_stop: terminal
//   - error: failed, carrying the API error
//   - anything else (ping, message_start, thinking deltas): empty delta
type Parser struct{}

// Parse implements [trickle.Parser].
func (Parser) Parse(payload string) trickle.Record {
	var evt sseEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return trickle.RecordUnparseable{Err: err}
	}
	switch evt.Type {
	case "content_block_delta":
		if evt.Delta.Type == "text_delta" {
			return trickle.RecordDelta{Text: evt.Delta.Text}
		}
		return trickle.RecordDelta{}
	case "message_stop":
		return trickle.RecordTerminal{}
	case "error":
		return trickle.RecordFailed{
			Err: fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message),
		}
	case "":
		return trickle.RecordUnparseable{Err: fmt.Errorf("anthropic: event without type: %w", trickle.ErrMalformedRecord)}
	default:
		return trickle.RecordDelta{}
	}
}
