package anthropic_test

import (
	"testing"

	"github.com/fwojciec/trickle"
	"github.com/fwojciec/trickle/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    trickle.Record
	}{
		{
			name:    "text delta",
			payload: `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`,
			want:    trickle.RecordDelta{Text: "Hi"},
		},
		{
			name:    "thinking delta is not reply text",
			payload: `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`,
			want:    trickle.RecordDelta{},
		},
		{
			name:    "message stop",
			payload: `{"type":"message_stop"}`,
			want:    trickle.RecordTerminal{},
		},
		{
			name:    "ping",
			payload: `{"type":"ping"}`,
			want:    trickle.RecordDelta{},
		},
		{
			name:    "message start",
			payload: `{"type":"message_start","message":{"id":"msg_1"}}`,
			want:    trickle.RecordDelta{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, anthropic.Parser{}.Parse(tt.payload))
		})
	}
}

func TestParser_ErrorEvent(t *testing.T) {
	t.Parallel()
	rec, ok := anthropic.Parser{}.Parse(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`).(trickle.RecordFailed)
	require.True(t, ok)
	assert.NotErrorIs(t, rec.Err, trickle.ErrMalformedRecord)
	assert.Contains(t, rec.Err.Error(), "overloaded_error: Overloaded")
}

func TestParser_Unparseable(t *testing.T) {
	t.Parallel()

	t.Run("missing type", func(t *testing.T) {
		t.Parallel()
		_, ok := anthropic.Parser{}.Parse(`{"delta":{}}`).(trickle.RecordUnparseable)
		assert.True(t, ok)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		_, ok := anthropic.Parser{}.Parse(`{`).(trickle.RecordUnparseable)
		assert.True(t, ok)
	})
}
