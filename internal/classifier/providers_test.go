package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureServer records the decoded JSON body of the last request and
// answers with reply.
func captureServer(t *testing.T, path, reply string) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestOpenAI_CompleteSendsNearZeroTemperature(t *testing.T) {
	srv, body := captureServer(t, "/chat/completions", `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "DECISION: WARM"}, "finish_reason": "stop"}]
	}`)

	out, err := NewOpenAI("sk-test", srv.URL, "gpt-4o-mini").Complete(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, "DECISION: WARM", out)

	require.Contains(t, *body, "temperature")
	temp, ok := (*body)["temperature"].(float64)
	require.True(t, ok)
	assert.Greater(t, temp, 0.0)
	assert.Less(t, temp, 1e-6)
	assert.Equal(t, "gpt-4o-mini", (*body)["model"])
}

func TestAnthropic_CompleteSendsZeroTemperature(t *testing.T) {
	srv, body := captureServer(t, "/v1/messages", `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-haiku-latest",
		"content": [{"type": "text", "text": "DECISION: NURTURE"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 4}
	}`)

	out, err := NewAnthropic("sk-ant-test", srv.URL, "claude-3-5-haiku-latest").Complete(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, "DECISION: NURTURE", out)

	require.Contains(t, *body, "temperature")
	assert.Equal(t, 0.0, (*body)["temperature"])
	assert.Equal(t, float64(anthropicMaxTokens), (*body)["max_tokens"])
}
