package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// LLMProvider is an OpenAI-compatible chat completions endpoint.
type LLMProvider struct {
	Name   string
	URL    string
	APIKey string
	Model  string
}

// Completer returns the model's answer to a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMClient tries each configured provider in order until one answers.
type LLMClient struct {
	providers []LLMProvider
	client    *http.Client
}

func NewLLMClient(timeout time.Duration, providers ...LLMProvider) *LLMClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	configured := make([]LLMProvider, 0, len(providers))
	for _, p := range providers {
		if p.APIKey != "" && p.URL != "" {
			configured = append(configured, p)
		}
	}
	return &LLMClient{
		providers: configured,
		client:    &http.Client{Timeout: timeout},
	}
}

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", fmt.Errorf("%w: no LLM provider configured", ErrAIUnavailable)
	}

	var lastErr error
	for _, p := range c.providers {
		content, err := c.callProvider(ctx, p, systemPrompt, userPrompt)
		if err == nil {
			return content, nil
		}
		slog.Warn("LLM provider failed", "provider", p.Name, "error", err)
		lastErr = err
	}
	return "", fmt.Errorf("%w: all LLM providers failed: %v", ErrAIUnavailable, lastErr)
}

func (c *LLMClient) callProvider(ctx context.Context, p LLMProvider, systemPrompt, userPrompt string) (string, error) {
	reqBody, err := json.Marshal(llmRequest{
		Model: p.Model,
		Messages: []llmMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.4,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	var llmResp llmResponse
	if err := json.Unmarshal(body, &llmResp); err != nil {
		return "", err
	}
	if len(llmResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	content := stripCodeFence(llmResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content from API")
	}
	return content, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
