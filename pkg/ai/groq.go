package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"divai/pkg/domain"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider calls Groq's OpenAI-compatible /chat/completions endpoint.
type GroqProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

// NewGroqProvider builds a Groq-backed Provider.
func NewGroqProvider(apiKey, model string) (*GroqProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqProvider{
		apiKey:      apiKey,
		model:       model,
		baseURL:     defaultGroqBaseURL,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Generate implements Provider using the chat completions API.
// The system prompt becomes a leading "system" message and internal roles
// are remapped to the OpenAI vocabulary ("model" -> "assistant").
func (p *GroqProvider) Generate(ctx context.Context, history []Turn, systemPrompt string) (string, error) {
	messages := make([]groqMessage, 0, len(history)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, groqMessage{Role: "system", Content: systemPrompt})
	}
	for _, turn := range history {
		messages = append(messages, groqMessage{Role: groqRole(turn.Role), Content: turn.Text})
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("groq: empty history")
	}

	reqBody := groqChatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp groqErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return "", &ProviderError{
			Provider:   "groq",
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
		}
	}

	var chatResp groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("groq decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from groq")
	}
	return text, nil
}

func groqRole(role string) string {
	if role == domain.RoleModel {
		return "assistant"
	}
	return "user"
}

// OpenAI-compatible request/response types.

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

type groqErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
