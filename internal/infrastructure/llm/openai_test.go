package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/ports"
)

func newTestClient(endpoint string) *Client {
	c := NewClient(config.OpenAIConfig{
		Endpoint: endpoint,
		Model:    "gpt-4o-mini",
		APIKey:   "test-key",
	})
	c.sleep = func(time.Duration) {}
	return c
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := chatResponse{}
	resp.Choices = append(resp.Choices, struct {
		Message chatMessage `json:"message"`
	}{Message: chatMessage{Role: "assistant", Content: content}})
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, "  generated text  ")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	text, err := client.Complete(context.Background(), ports.CompletionRequest{
		Prompt:       "write about caching",
		SystemPrompt: "you are a writer",
		MaxTokens:    100,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "generated text" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" || len(gotReq.Messages) != 2 {
		t.Fatalf("unexpected request %+v", gotReq)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusBadGateway)
			return
		}
		chatReply(t, w, "eventually fine")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	text, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "eventually fine" {
		t.Fatalf("unexpected text %q", text)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("expected 3 calls, got %d", n)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestCompleteSanitizesErrorContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "Error: model unavailable")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	text, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text for upstream error content, got %q", text)
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Outlast the client deadline, but release the handler so the
		// server can shut down.
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Complete(ctx, ports.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected an error after context deadline")
	}
}

func TestCompleteMisconfigured(t *testing.T) {
	client := NewClient(config.OpenAIConfig{})
	if _, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected an error for a client without credentials")
	}
}

type scriptedGenerator struct{ text string }

func (s scriptedGenerator) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	return s.text, nil
}

func TestGenerateTopicsParsesLines(t *testing.T) {
	gen := NewTopicGenerator(scriptedGenerator{text: "\"First Title\"\n\n- Second Title\nThird Title\nFourth Title\n"})

	topics, err := gen.GenerateTopics(context.Background(), "main", "technology", 3)
	if err != nil {
		t.Fatalf("GenerateTopics: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(topics))
	}
	if topics[0].Title != "First Title" || topics[1].Title != "Second Title" {
		t.Fatalf("titles not cleaned: %+v", topics)
	}
	for _, topic := range topics {
		if topic.Priority != 5 || topic.Category != "technology" || topic.BlogID != "main" {
			t.Fatalf("unexpected topic %+v", topic)
		}
	}
}

func TestGenerateTopicsEmptyOutput(t *testing.T) {
	gen := NewTopicGenerator(scriptedGenerator{text: "\n\n  \n"})
	if _, err := gen.GenerateTopics(context.Background(), "main", "technology", 3); err == nil {
		t.Fatal("expected an error for empty model output")
	}
}
