package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ResultViewer/internal/config"
	"ResultViewer/internal/domain"
	"ResultViewer/internal/i18n"
	"ResultViewer/internal/ports"
)

const defaultTimeout = 60 * time.Second

// ChatGPTClient implements ports.Translator backed by OpenAI-compatible chat APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Translator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate asks the model to translate text into targetLanguage.
func (c *ChatGPTClient) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", &domain.TranslationError{Language: targetLanguage, Message: "chatgpt client misconfigured"}
	}

	translated, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: safePrompt(c.systemPrompt)},
		{Role: "user", Content: userPrompt(text, targetLanguage)},
	})
	if err != nil {
		return "", &domain.TranslationError{Language: targetLanguage, Message: err.Error(), Err: err}
	}
	return translated, nil
}

func (c *ChatGPTClient) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send translation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chatgpt returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func userPrompt(text, targetLanguage string) string {
	name := i18n.DisplayName(targetLanguage, i18n.BaseLocale)
	return fmt.Sprintf("Translate the following text into %s (%s). Keep line breaks.\n\n%s",
		name, i18n.Normalize(targetLanguage), text)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You translate fact-check explanations. Reply with the translation only."
	}
	return prompt
}
