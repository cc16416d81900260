package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpilot/mailpilot/internal/api"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

func newBackedClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	apiClient, err := api.NewClient(srv.URL, staticToken("tok"))
	require.NoError(t, err)
	return NewClient(apiClient, nil)
}

func TestProcessWithPromptType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/agent/process", func(w http.ResponseWriter, r *http.Request) {
		var req processRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "3", req.EmailID)
		assert.Equal(t, "summarize", req.PromptType)
		assert.Empty(t, req.CustomPrompt)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(ProcessResult{
			EmailID:    "3",
			PromptType: "summarize",
			Result:     "Mike needs the contract feedback by Thursday.",
		}))
	})
	client := newBackedClient(t, mux)

	result, err := client.Process(context.Background(), "3", "summarize", "")
	require.NoError(t, err)
	assert.Contains(t, result.Result, "Thursday")
	assert.False(t, result.UsedCustomPrompt)
}

func TestProcessWithCustomPrompt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/agent/process", func(w http.ResponseWriter, r *http.Request) {
		var req processRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Translate to German.", req.CustomPrompt)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(ProcessResult{
			EmailID: "3", Result: "Hallo", UsedCustomPrompt: true,
		}))
	})
	client := newBackedClient(t, mux)

	result, err := client.Process(context.Background(), "3", "", "Translate to German.")
	require.NoError(t, err)
	assert.True(t, result.UsedCustomPrompt)
}

func TestProcessValidatesInput(t *testing.T) {
	apiClient, err := api.NewClient("http://127.0.0.1:1", staticToken(""))
	require.NoError(t, err)
	client := NewClient(apiClient, nil)

	_, err = client.Process(context.Background(), "", "summarize", "")
	require.Error(t, err)

	_, err = client.Process(context.Background(), "3", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "promptType or customPrompt")
}

func TestProcessUnknownEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/agent/process", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Email not found"}`))
	})
	client := newBackedClient(t, mux)

	_, err := client.Process(context.Background(), "999", "summarize", "")
	require.Error(t, err)
	assert.Equal(t, api.KindNotFound, api.KindOf(err))
	assert.Equal(t, "Email not found", api.Detail(err))
}

func TestChat(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/agent/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is urgent today?", req.Message)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(ChatResult{
			Response:  "One contract review is due Thursday.",
			Timestamp: "2026-08-30T12:00:00",
		}))
	})
	client := newBackedClient(t, mux)

	result, err := client.Chat(context.Background(), "what is urgent today?")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "Thursday")

	_, err = client.Chat(context.Background(), "")
	require.Error(t, err)
}
