package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"chatbot/config"
)

type PerplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// PerplexityService answers through the Perplexity chat completions API.
type PerplexityService struct {
	client *resty.Client
	url    string
	apiKey string
	model  string
}

func NewPerplexityService(cfg config.PerplexityConfig) *PerplexityService {
	return &PerplexityService{
		client: resty.New(),
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (s *PerplexityService) Name() string { return config.ProviderPerplexity }

func (s *PerplexityService) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("API key is not set")
	}

	requestBody := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userMessage},
		},
		"max_tokens":               500,
		"temperature":              0.7,
		"return_images":            false,
		"return_related_questions": false,
		"stream":                   false,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(requestBody).
		Post(s.url)
	if err != nil {
		return "", err
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("perplexity request failed, status: %d", resp.StatusCode())
	}

	var result PerplexityResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Choices) > 0 && result.Choices[0].Message.Content != "" {
		return result.Choices[0].Message.Content, nil
	}
	return "", ErrEmptyCompletion
}
