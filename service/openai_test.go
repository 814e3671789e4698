package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestCompleteWithoutCredential(t *testing.T) {
	chat := NewOpenAIChat(&OpenAIConfig{})
	_, err := chat.Complete(context.Background(), "system", "user")
	if !errors.Is(err, core.ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
}

func TestNewOpenAIChatDefaults(t *testing.T) {
	chat := NewOpenAIChat(nil)
	if chat.config.Model != "gpt-4o-mini" {
		t.Errorf("default model = %s", chat.config.Model)
	}
	if chat.config.Timeout <= 0 {
		t.Error("default timeout missing")
	}
}

func TestCompleteAgainstCompatibleGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "[]"}},
			},
		})
	}))
	defer srv.Close()

	chat := NewOpenAIChat(&OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	})
	got, err := chat.Complete(context.Background(), "rank these", "{}")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "[]" {
		t.Errorf("content = %q, want []", got)
	}
}
