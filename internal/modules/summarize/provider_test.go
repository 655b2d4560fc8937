package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	appcfg "github.com/kurz-app/kurz-go/internal/config"
)

func TestSelectProvider(t *testing.T) {
	providers := []appcfg.AIProvider{
		{ID: "disabled", Type: "openai", APIKey: "k0", Enabled: false},
		{ID: "first", Type: "gemini", APIKey: "k1", DefaultModel: "gemini-2.0-flash", Enabled: true},
		{ID: "second", Type: "anthropic", APIKey: "k2", DefaultModel: "claude-haiku-4-5-20251001", Enabled: true},
	}

	t.Run("first enabled wins", func(t *testing.T) {
		got := selectProvider(appcfg.AIConfig{Providers: providers})
		if got == nil || got.ID != "first" {
			t.Fatalf("selected = %+v", got)
		}
	})

	t.Run("assignment picks provider and model", func(t *testing.T) {
		cfg := appcfg.AIConfig{
			Providers:    providers,
			SummaryModel: &appcfg.ModelAssignment{ProviderID: "second", Model: "claude-sonnet-4-5"},
		}
		got := selectProvider(cfg)
		if got == nil || got.ID != "second" {
			t.Fatalf("selected = %+v", got)
		}
		if got.DefaultModel != "claude-sonnet-4-5" {
			t.Errorf("DefaultModel = %q", got.DefaultModel)
		}
	})

	t.Run("assignment to unknown provider falls back", func(t *testing.T) {
		cfg := appcfg.AIConfig{
			Providers:    providers,
			SummaryModel: &appcfg.ModelAssignment{ProviderID: "ghost"},
		}
		got := selectProvider(cfg)
		if got == nil || got.ID != "first" {
			t.Fatalf("selected = %+v", got)
		}
	})

	t.Run("no enabled providers", func(t *testing.T) {
		if got := selectProvider(appcfg.AIConfig{Providers: providers[:1]}); got != nil {
			t.Errorf("selected = %+v, want nil", got)
		}
	})
}

func TestGenerateWithoutProviders(t *testing.T) {
	gen := NewGenerator(appcfg.AIConfig{})
	if _, err := gen.Generate(context.Background(), "prompt"); err == nil {
		t.Error("Generate() should fail with no enabled provider")
	}
}

func TestCallOpenAICompatible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer relay-key" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "relay-model" || len(req.Messages) != 1 || req.Messages[0].Content != "the prompt" {
			t.Errorf("request = %+v", req)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"relayed summary"}}]}`)
	}))
	defer srv.Close()

	provider := &appcfg.AIProvider{
		Type:         "openai-compatible",
		APIKey:       "relay-key",
		Endpoint:     srv.URL,
		DefaultModel: "relay-model",
	}
	got, err := callOpenAICompatible(context.Background(), provider, "the prompt")
	if err != nil {
		t.Fatalf("callOpenAICompatible() error = %v", err)
	}
	if got != "relayed summary" {
		t.Errorf("summary = %q", got)
	}
}

func TestCallOpenAICompatibleEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	provider := &appcfg.AIProvider{Type: "openai-compatible", APIKey: "k", Endpoint: srv.URL}
	_, err := callOpenAICompatible(context.Background(), provider, "prompt")
	if !errors.Is(err, ErrEmptySummary) {
		t.Errorf("error = %v, want ErrEmptySummary", err)
	}
}

func TestCallOpenAICompatibleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	provider := &appcfg.AIProvider{Type: "openai-compatible", APIKey: "k", Endpoint: srv.URL}
	if _, err := callOpenAICompatible(context.Background(), provider, "prompt"); err == nil {
		t.Error("callOpenAICompatible() should surface API errors")
	}
}

func TestCallGemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"part one "},{"text":"part two"}]}}]}`)
	}))
	defer srv.Close()

	provider := &appcfg.AIProvider{Type: "gemini", APIKey: "k", Endpoint: srv.URL}
	got, err := callGemini(context.Background(), provider, "prompt")
	if err != nil {
		t.Fatalf("callGemini() error = %v", err)
	}
	if got != "part one part two" {
		t.Errorf("summary = %q", got)
	}
}

func TestCallGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	provider := &appcfg.AIProvider{Type: "gemini", APIKey: "k", Endpoint: srv.URL}
	_, err := callGemini(context.Background(), provider, "prompt")
	if !errors.Is(err, ErrEmptySummary) {
		t.Errorf("error = %v, want ErrEmptySummary", err)
	}
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://relay.example.com", "https://relay.example.com/v1"},
		{"https://relay.example.com/", "https://relay.example.com/v1"},
		{"https://relay.example.com/v1", "https://relay.example.com/v1"},
		{"https://relay.example.com/openai/v1", "https://relay.example.com/openai/v1"},
	}
	for _, tt := range tests {
		if got := normalizeOpenAIBaseURL(tt.in); got != tt.want {
			t.Errorf("normalizeOpenAIBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeOpenAICompatibleEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "https://api.openai.com"},
		{"https://relay.example.com", "https://relay.example.com"},
		{"https://relay.example.com/v1", "https://relay.example.com"},
		{"https://relay.example.com/v1/", "https://relay.example.com"},
	}
	for _, tt := range tests {
		if got := normalizeOpenAICompatibleEndpoint(tt.in); got != tt.want {
			t.Errorf("normalizeOpenAICompatibleEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeProviderType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gemini", "gemini"},
		{"OpenAI_Compatible", "openai-compatible"},
		{" anthropic ", "anthropic"},
	}
	for _, tt := range tests {
		if got := normalizeProviderType(tt.in); got != tt.want {
			t.Errorf("normalizeProviderType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
