package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"resume-wizard/internal/llm"
)

func TestGenerateResumeOmitsTemperatureForDenylist(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var bodyMu sync.Mutex
	var lastBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		bodyMu.Lock()
		lastBody = payload
		bodyMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"# Resume"}}]}`))
	}))
	defer server.Close()

	apiURL = server.URL
	t.Setenv("LLM_NO_TEMP0_MODELS", "gpt-4o-mini")

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.GenerateResume(context.Background(), testInput())
	if err != nil {
		t.Fatalf("GenerateResume: %v", err)
	}

	bodyMu.Lock()
	_, hasTemp := lastBody["temperature"]
	bodyMu.Unlock()
	if hasTemp {
		t.Fatalf("expected temperature to be omitted for denylisted model")
	}
}

func TestGenerateResumeRetriesWithoutTemperature(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var reqBodies []map[string]any
	var mu sync.Mutex
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		mu.Lock()
		reqBodies = append(reqBodies, payload)
		calls++
		callNum := calls
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if callNum == 1 {
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model. Only the default (1) value is supported.","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"# Resume"}}]}`))
	}))
	defer server.Close()

	apiURL = server.URL
	t.Setenv("LLM_NO_TEMP0_MODELS", "")

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.GenerateResume(context.Background(), testInput())
	if err != nil {
		t.Fatalf("GenerateResume: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reqBodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqBodies))
	}
	if _, ok := reqBodies[0]["temperature"]; !ok {
		t.Fatalf("expected first request to include temperature")
	}
	if _, ok := reqBodies[1]["temperature"]; ok {
		t.Fatalf("expected retry request to omit temperature")
	}
}

func TestGenerateResumeNoInfiniteRetry(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	apiURL = server.URL
	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.GenerateResume(context.Background(), testInput())
	if err == nil {
		t.Fatalf("expected error on repeated temperature unsupported response")
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests (one retry), got %d", calls)
	}
}

func testInput() llm.ResumeInput {
	return llm.ResumeInput{
		JobDescription:  "Senior data analyst",
		SourceDocuments: []llm.SourceDocument{{Name: "cv.md", Type: "text/markdown", Content: "SQL, Python"}},
		Model:           "claude-3",
		Template:        "modern",
		Language:        "en-us",
	}
}

func TestGenerateResumeTransientStatus(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	apiURL = server.URL

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.GenerateResume(context.Background(), testInput())
	if !errors.Is(err, llm.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestGenerateResumeUsesWizardModelWhenOpenAI(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var model string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		model, _ = payload["model"].(string)
		_, _ = w.Write([]byte("{\"choices\":[{\"message\":{\"content\":\"```markdown\\n# Resume\\n```\"}}]}"))
	}))
	defer server.Close()
	apiURL = server.URL

	client, _ := NewClient("test-key", "gpt-4o-mini")
	input := testInput()
	input.Model = "gpt-4"
	got, err := client.GenerateResume(context.Background(), input)
	if err != nil {
		t.Fatalf("GenerateResume: %v", err)
	}
	if model != "gpt-4" {
		t.Fatalf("expected wizard model gpt-4, got %s", model)
	}
	if got != "# Resume" {
		t.Fatalf("expected code fence stripped, got %q", got)
	}
}

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestBuildPromptIncludesDocuments(t *testing.T) {
	msgs := BuildPrompt(testInput())
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	user := msgs[2].Content
	if !strings.Contains(user, "Document 1: cv.md (text/markdown)") || !strings.Contains(user, "SQL, Python") {
		t.Fatalf("unexpected user prompt:\n%s", user)
	}
}
