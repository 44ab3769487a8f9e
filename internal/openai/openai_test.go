package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/local/chatrelay/internal/convo"
)

func TestComplete_ReturnsContent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Hello!"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, server.URL, "test-model", 5*time.Second)
	content, err := client.Complete(context.Background(), []convo.Message{{Role: convo.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if content != "Hello!" {
		t.Errorf("expected content 'Hello!', got %q", content)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
}

func TestComplete_SendsFullMessageSequence(t *testing.T) {
	var gotReq struct {
		Model    string          `json:"model"`
		Messages []convo.Message `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, server.URL, "test-model", 5*time.Second)
	messages := []convo.Message{
		{Role: convo.RoleUser, Content: "first"},
		{Role: convo.RoleAssistant, Content: "second\n"},
		{Role: convo.RoleUser, Content: "third"},
	}
	if _, err := client.Complete(context.Background(), messages); err != nil {
		t.Fatal(err)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("unexpected model: %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 3 || gotReq.Messages[2].Content != "third" {
		t.Errorf("message sequence not preserved: %#v", gotReq.Messages)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"choices": []map[string]any{}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, server.URL, "test-model", 5*time.Second)
	content, err := client.Complete(context.Background(), []convo.Message{{Role: convo.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if content != "(empty model response)" {
		t.Errorf("expected empty model response fallback, got %q", content)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, server.URL, "test-model", 5*time.Second)
	_, err := client.Complete(context.Background(), []convo.Message{{Role: convo.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestUsage_ParsesCredits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"total_granted":   10.0,
			"total_used":      1.25,
			"total_available": 8.75,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, server.URL, "test-model", 5*time.Second)
	usage, err := client.Usage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if usage.Used != 1.25 {
		t.Errorf("expected used 1.25, got %v", usage.Used)
	}
	if usage.Available != 8.75 {
		t.Errorf("expected available 8.75, got %v", usage.Available)
	}
}

func TestUsage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, server.URL, "test-model", 5*time.Second)
	if _, err := client.Usage(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
