// services/perplexity_provider.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
)

type perplexityProvider struct {
	apiKey      string
	model       string
	baseURL     string
	costService CostService
	httpClient  *http.Client
}

func NewPerplexityProvider(cfg *config.Config, model string, costService CostService) AIProvider {
	fmt.Printf("[NewPerplexityProvider] Creating Perplexity provider\n")
	fmt.Printf("[NewPerplexityProvider]   - API Key: %s\n", maskAPIKey(cfg.PerplexityAPIKey))
	fmt.Printf("[NewPerplexityProvider]   - Model: %s\n", model)

	return &perplexityProvider{
		apiKey:      cfg.PerplexityAPIKey,
		model:       model,
		baseURL:     "https://api.perplexity.ai",
		costService: costService,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Helper function to mask API key for logging
func maskAPIKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func (p *perplexityProvider) GetProviderName() string {
	return "perplexity"
}

// Perplexity chat completions request/response structures
type PerplexityRequest struct {
	Model    string              `json:"model"`
	Messages []PerplexityMessage `json:"messages"`
}

type PerplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PerplexityResponse struct {
	ID            string                   `json:"id"`
	Model         string                   `json:"model"`
	Citations     []string                 `json:"citations,omitempty"`
	SearchResults []PerplexitySearchResult `json:"search_results,omitempty"`
	Choices       []PerplexityChoice       `json:"choices"`
	Usage         PerplexityUsage          `json:"usage"`
}

type PerplexitySearchResult struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

type PerplexityChoice struct {
	Index   int               `json:"index"`
	Message PerplexityMessage `json:"message"`
}

type PerplexityUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RunPrompt runs one prompt through the Perplexity chat completions API.
// Sonar models search the web on every call, so the citations and
// search_results fields come back populated and are passed through as the
// Raw payload alongside the response text.
func (p *perplexityProvider) RunPrompt(ctx context.Context, prompt string) (*ProviderResponse, error) {
	requestBody := PerplexityRequest{
		Model: p.model,
		Messages: []PerplexityMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perplexity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("perplexity API returned status %d: %s", resp.StatusCode, string(body))
	}

	var pplxResp PerplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pplxResp); err != nil {
		return nil, fmt.Errorf("failed to decode perplexity response: %w", err)
	}

	if len(pplxResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	responseText := pplxResp.Choices[0].Message.Content

	raw, err := json.Marshal(map[string]interface{}{
		"response":       responseText,
		"citations":      pplxResp.Citations,
		"search_results": pplxResp.SearchResults,
	})
	if err != nil {
		fmt.Printf("[RunPrompt] ⚠️ Failed to encode citation payload: %v\n", err)
	}

	fmt.Printf("[PerplexityProvider] ✅ Perplexity call completed\n")
	fmt.Printf("[PerplexityProvider]   - Response length: %d characters\n", len(responseText))
	fmt.Printf("[PerplexityProvider]   - Citations: %d\n", len(pplxResp.Citations))

	return &ProviderResponse{
		Text:         responseText,
		Raw:          raw,
		InputTokens:  pplxResp.Usage.PromptTokens,
		OutputTokens: pplxResp.Usage.CompletionTokens,
		Cost:         p.costService.CalculateCost(p.GetProviderName(), p.model, pplxResp.Usage.PromptTokens, pplxResp.Usage.CompletionTokens, true),
	}, nil
}
