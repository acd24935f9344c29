package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/ports"
)

const (
	defaultTimeout = 30 * time.Second
	// The backend reports some failures inside a 200 response.
	failureMarker = "⚠️ Translation Failed:"
)

// Client talks to the analysis backend over its JSON API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Translator = (*Client)(nil)
var _ ports.Analyzer = (*Client)(nil)

// NewClient creates a reusable HTTP client. A zero timeout selects 30s.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Translate asks the backend to translate text into targetLanguage.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	payload := map[string]string{
		"content":         text,
		"target_language": targetLanguage,
	}

	var resp struct {
		TranslatedContent string `json:"translated_content"`
	}
	if err := c.post(ctx, "/translate_result", payload, &resp); err != nil {
		return "", &domain.TranslationError{
			Language: targetLanguage,
			Message:  failureMessage(err),
			Err:      err,
		}
	}
	if strings.HasPrefix(strings.TrimSpace(resp.TranslatedContent), failureMarker) {
		return "", &domain.TranslationError{
			Language: targetLanguage,
			Message:  "backend could not translate the content",
		}
	}

	return resp.TranslatedContent, nil
}

// AnalyzeText submits a claim for a fresh verdict.
func (c *Client) AnalyzeText(ctx context.Context, text string) (domain.RawAnalysisResult, error) {
	var result domain.RawAnalysisResult
	if err := c.post(ctx, "/check_news", map[string]string{"text": text}, &result); err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("analyze text: %w", err)
	}
	return result, nil
}

// StatusError is a non-success response from the backend.
type StatusError struct {
	Status  string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Message)
}

func failureMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return err.Error()
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.Status, Code: resp.StatusCode, Message: errorMessage(raw)}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls the human-readable reason out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
