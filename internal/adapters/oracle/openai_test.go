package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIAdapter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Content != "classify this" {
			t.Errorf("prompt not forwarded: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Class: 9 - electronics"}},
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "test-model", "k")
	raw, err := adapter.Complete(context.Background(), "classify this")

	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if raw != "Class: 9 - electronics" {
		t.Errorf("unexpected response: %q", raw)
	}
}

func TestOpenAIAdapter_APIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "model overloaded"},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "test", "k")
	if _, err := adapter.Complete(context.Background(), "x"); err == nil {
		t.Error("should surface the API error envelope")
	}
}

func TestOpenAIAdapter_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL, "test", "k")
	if _, err := adapter.Complete(context.Background(), "x"); err == nil {
		t.Error("should error on empty choices")
	}
}

func TestOpenAIAdapter_Defaults(t *testing.T) {
	adapter := NewOpenAIAdapter("", "", "k")
	if adapter.baseURL != "https://api.openai.com" || adapter.model != "gpt-4o" {
		t.Errorf("unexpected defaults: %s %s", adapter.baseURL, adapter.model)
	}
}
