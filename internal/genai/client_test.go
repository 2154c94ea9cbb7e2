package genai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paceline/paceline-backend/internal/logger"
)

func testGeminiClient(t *testing.T, baseURL string) *geminiClient {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return &geminiClient{
		log:        log,
		baseURL:    baseURL,
		apiKey:     "test-key",
		model:      "gemini-2.0-flash",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGenerateTextReturnsCandidateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"part one "},{"text":"part two"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c := testGeminiClient(t, srv.URL)
	text, err := c.GenerateText(context.Background(), "say something")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "part one part two" {
		t.Fatalf("text: got=%q", text)
	}
}

func TestGenerateTextHTTPErrorIsGenerationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testGeminiClient(t, srv.URL)
	_, err := c.GenerateText(context.Background(), "say something")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("GenerateText: want ErrGenerationFailed got %v", err)
	}
}

func TestGenerateTextBlockedPromptIsGenerationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	c := testGeminiClient(t, srv.URL)
	_, err := c.GenerateText(context.Background(), "say something")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("GenerateText: want ErrGenerationFailed got %v", err)
	}
}

func TestGenerateTextEmptyResponseIsGenerationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := testGeminiClient(t, srv.URL)
	_, err := c.GenerateText(context.Background(), "say something")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("GenerateText: want ErrGenerationFailed got %v", err)
	}
}
