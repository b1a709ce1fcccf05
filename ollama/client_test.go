package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/trickle"
	"github.com/fwojciec/trickle/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloStream = `{"model":"gemma3:1b","message":{"role":"assistant","content":"Hel"},"done":false}
{"model":"gemma3:1b","message":{"role":"assistant","content":"lo"},"done":false}
{"model":"gemma3:1b","message":{"role":"assistant","content":" world"},"done":false}
{"model":"gemma3:1b","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}
`

func userRequest(text string) trickle.Request {
	return trickle.Request{Messages: []trickle.Message{trickle.UserMessage(text)}}
}

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, helloStream)
	}))
	defer srv.Close()

	temp := 1.0
	client := ollama.New(ollama.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), trickle.Request{
		Model:        "llama3.2",
		SystemPrompt: "You are a helpful assistant.",
		Messages: []trickle.Message{
			trickle.UserMessage("Hello"),
			trickle.AssistantMessage("Hi"),
			trickle.UserMessage("Thanks"),
		},
		MaxTokens:   512,
		Temperature: &temp,
	})
	require.NoError(t, err)
	defer s.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))

	assert.Equal(t, "llama3.2", body["model"])
	assert.Equal(t, true, body["stream"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, map[string]any{"role": "system", "content": "You are a helpful assistant."}, msgs[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "Hello"}, msgs[1])
	assert.Equal(t, map[string]any{"role": "assistant", "content": "Hi"}, msgs[2])
	assert.Equal(t, map[string]any{"role": "user", "content": "Thanks"}, msgs[3])

	options := body["options"].(map[string]any)
	assert.Equal(t, 1.0, options["temperature"])
	assert.Equal(t, float64(512), options["num_predict"])
}

func TestClient_Defaults(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, helloStream)
	}))
	defer srv.Close()

	s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)
	defer s.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, ollama.DefaultModel, body["model"])
	assert.NotContains(t, body, "options")
	assert.Len(t, body["messages"], 1, "no system message without a system prompt")
}

func TestClient_WithModel(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, helloStream)
	}))
	defer srv.Close()

	s, err := ollama.New(ollama.WithBaseURL(srv.URL), ollama.WithModel("qwen3")).
		Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)
	defer s.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, "qwen3", body["model"])
}

func TestClient_Streaming(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, part := range []string{
			`{"message":{"role":"assistant","content":"Hel"}}` + "\n" + `{"message":{"role":"assi`,
			`stant","content":"lo"}}` + "\n",
			"not json\n",
			`{"message":{"role":"assistant","content":" world"}}` + "\n",
		} {
			_, _ = io.WriteString(w, part)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Stream(context.Background(), userRequest("Hi"))
	require.NoError(t, err)

	var updates []string
	text, err := trickle.Consume(context.Background(), s, func(text string) {
		updates = append(updates, text)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "Hello", "Hello world"}, updates)
	assert.Equal(t, "Hello world", text)
	assert.Equal(t, trickle.StatusCompleted, s.Status())
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model \"nope\" not found, try pulling it first"}`)
	}))
	defer srv.Close()

	_, err := ollama.New(ollama.WithBaseURL(srv.URL)).Stream(context.Background(), userRequest("Hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, trickle.ErrRequestRejected)
	assert.Contains(t, err.Error(), "ollama:")
	assert.Contains(t, err.Error(), `model "nope" not found`)
}

func TestClient_InvalidRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	}))
	defer srv.Close()

	_, err := ollama.New(ollama.WithBaseURL(srv.URL)).Stream(context.Background(), trickle.Request{})
	assert.ErrorIs(t, err, trickle.ErrValidation)
}

func TestClient_ContextCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":{"content":"partial"}}`+"\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := ollama.New(ollama.WithBaseURL(srv.URL)).Stream(ctx, userRequest("Hi"))
	require.NoError(t, err)

	text, err := trickle.Consume(ctx, s, func(string) { cancel() })
	assert.True(t, trickle.IsCancelled(err))
	assert.Equal(t, "partial", text)
}
