package genai

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "net/http"
  "strconv"
  "strings"
  "time"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/utils"
)

// ErrGenerationFailed covers every way a single provider call can go wrong:
// network error, provider-side error (quota, safety block) or an empty
// response. One call per attempt; the batch layer decides what a failed
// attempt means, so the client never retries.
var ErrGenerationFailed = errors.New("generation failed")

type Client interface {
  GenerateText(ctx context.Context, prompt string) (string, error)
  Model() string
}

type geminiClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client
}

func NewGeminiClient(log *logger.Logger) (Client, error) {
  apiKey := utils.GetEnv("GEMINI_API_KEY", "", log)
  if apiKey == "" {
    return nil, fmt.Errorf("missing GEMINI_API_KEY")
  }

  baseURL := utils.GetEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta", log)
  model := utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash", log)

  timeoutSec := 120
  if v := utils.GetEnv("GEMINI_TIMEOUT_SECONDS", "", nil); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &geminiClient{
    log:        log.With("service", "GeminiClient"),
    baseURL:    strings.TrimRight(baseURL, "/"),
    apiKey:     apiKey,
    model:      model,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

func (c *geminiClient) Model() string {
  return c.model
}

type geminiHTTPError struct {
  StatusCode int
  Body       string
}

func (e *geminiHTTPError) Error() string {
  return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

type geminiPart struct {
  Text string `json:"text"`
}

type geminiContent struct {
  Role  string       `json:"role"`
  Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
  Temperature     float64 `json:"temperature"`
  MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateContentRequest struct {
  Contents         []geminiContent        `json:"contents"`
  GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiCandidate struct {
  Content struct {
    Parts []geminiPart `json:"parts"`
  } `json:"content"`
  FinishReason string `json:"finishReason"`
}

type generateContentResponse struct {
  Candidates     []geminiCandidate `json:"candidates"`
  PromptFeedback struct {
    BlockReason string `json:"blockReason"`
  } `json:"promptFeedback"`
}

func (c *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
  req := generateContentRequest{
    Contents: []geminiContent{
      {Role: "user", Parts: []geminiPart{{Text: prompt}}},
    },
    GenerationConfig: geminiGenerationConfig{Temperature: 0.8},
  }

  var buf bytes.Buffer
  if err := json.NewEncoder(&buf).Encode(req); err != nil {
    return "", fmt.Errorf("%w: encode request: %v", ErrGenerationFailed, err)
  }

  url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
  httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
  if err != nil {
    return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
  }
  httpReq.Header.Set("Content-Type", "application/json")
  httpReq.Header.Set("x-goog-api-key", c.apiKey)

  started := time.Now()
  resp, err := c.httpClient.Do(httpReq)
  if err != nil {
    return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
  }
  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return "", fmt.Errorf("%w: read response: %v", ErrGenerationFailed, readErr)
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    httpErr := &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
    c.log.Warn("Gemini request failed", "status", resp.StatusCode, "latency", time.Since(started).String())
    return "", fmt.Errorf("%w: %v", ErrGenerationFailed, httpErr)
  }

  var parsed generateContentResponse
  if err := json.Unmarshal(raw, &parsed); err != nil {
    return "", fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
  }
  if parsed.PromptFeedback.BlockReason != "" {
    return "", fmt.Errorf("%w: prompt blocked: %s", ErrGenerationFailed, parsed.PromptFeedback.BlockReason)
  }

  var text strings.Builder
  for _, cand := range parsed.Candidates {
    for _, part := range cand.Content.Parts {
      text.WriteString(part.Text)
    }
  }
  if text.Len() == 0 {
    return "", fmt.Errorf("%w: no candidate text in response", ErrGenerationFailed)
  }

  c.log.Debug("Gemini request completed", "latency", time.Since(started).String(), "chars", text.Len())
  return text.String(), nil
}
