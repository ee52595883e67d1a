package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ramadan_bot_server/config"
)

func chatServer(t *testing.T, content string, status int) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exhausted","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gemini-2.5-flash-lite",
			"choices": []map[string]interface{}{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestClient(baseURL string) *Client {
	return NewClient(&config.Config{LLM: config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL + "/v1beta/openai/",
		Model:   "gemini-2.5-flash-lite",
	}})
}

func TestClient_Generate(t *testing.T) {
	srv, got := chatServer(t, "  Sabr is light for the fasting heart.  \n", http.StatusOK)
	client := newTestClient(srv.URL)

	text, err := client.Generate(context.Background(), Request{Topic: "Patience", Day: 3})
	require.NoError(t, err)
	assert.Equal(t, "Sabr is light for the fasting heart.", text)

	assert.Equal(t, "gemini-2.5-flash-lite", (*got)["model"])
	messages, ok := (*got)["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	prompt := messages[0].(map[string]interface{})["content"].(string)
	assert.Contains(t, prompt, `TOPIC: "Patience"`)
	assert.Contains(t, prompt, "RAMADAN DAY: 3")
}

func TestClient_Generate_EmptyText(t *testing.T) {
	srv, _ := chatServer(t, "   ", http.StatusOK)
	client := newTestClient(srv.URL)

	_, err := client.Generate(context.Background(), Request{Topic: "Mercy", Day: 1})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestClient_Generate_UpstreamError(t *testing.T) {
	srv, _ := chatServer(t, "", http.StatusInternalServerError)
	client := newTestClient(srv.URL)
	client.timeout = 2 * time.Second

	_, err := client.Generate(context.Background(), Request{Topic: "Mercy", Day: 1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResponse))
}

func TestClient_Generate_NotConfigured(t *testing.T) {
	client := NewClient(&config.Config{})

	_, err := client.Generate(context.Background(), Request{Topic: "Mercy", Day: 1})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestBuildPrompt(t *testing.T) {
	t.Run("without hint", func(t *testing.T) {
		p := BuildPrompt(" Charity ", 12, "")
		assert.Contains(t, p, `TOPIC: "Charity"`)
		assert.Contains(t, p, "RAMADAN DAY: 12 (out of 30)")
		assert.Contains(t, p, "on day 12")
		assert.NotContains(t, p, "REFERENCE HINT")
	})

	t.Run("with hint", func(t *testing.T) {
		p := BuildPrompt("Charity", 12, "Quran 2:261")
		assert.Contains(t, p, "HADITH/AYAH REFERENCE HINT: Quran 2:261")
	})
}
