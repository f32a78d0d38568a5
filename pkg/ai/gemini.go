package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Model family prefixes without systemInstruction support. For these the
// system prompt is folded into the first history turn as plain text.
var constrainedGeminiPrefixes = []string{"gemma"}

// GeminiProvider calls the Google AI Studio (Gemini) generateContent API.
type GeminiProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

// NewGeminiProvider constructs a provider with the given API key and model.
func NewGeminiProvider(apiKey, model string) (*GeminiProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	model = normalizeModel(model)
	if model == "" {
		return nil, fmt.Errorf("gemini model required")
	}
	return &GeminiProvider{
		apiKey:      apiKey,
		model:       model,
		baseURL:     defaultGeminiBaseURL,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Generate implements Provider using the generateContent endpoint.
func (p *GeminiProvider) Generate(ctx context.Context, history []Turn, systemPrompt string) (string, error) {
	contents := make([]geminiContent, 0, len(history))
	for _, turn := range history {
		contents = append(contents, geminiContent{
			Role:  turn.Role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: empty history")
	}

	reqBody := geminiRequest{
		Contents:         contents,
		GenerationConfig: &geminiGenerationConfig{Temperature: p.temperature},
	}
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt != "" {
		if constrainedGeminiModel(p.model) {
			// No systemInstruction field on this family; prepend the prompt
			// onto the first turn instead.
			first := &reqBody.Contents[0]
			first.Parts = []geminiPart{{Text: systemPrompt + "\n\n" + first.Parts[0].Text}}
		} else {
			reqBody.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: systemPrompt}},
			}
		}
	}

	var resp geminiResponse
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	if err := p.doJSON(ctx, url, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

func constrainedGeminiModel(model string) bool {
	for _, prefix := range constrainedGeminiPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	model = strings.TrimPrefix(model, "models/")
	return model
}

func (p *GeminiProvider) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp geminiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &ProviderError{
			Provider:   "gemini",
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini decode: %w", err)
	}
	return nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
