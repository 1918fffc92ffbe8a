// services/openai_provider.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
)

type openAIProvider struct {
	model       string
	costService CostService
	apiKey      string
	baseURL     string
	httpClient  *http.Client
}

func NewOpenAIProvider(cfg *config.Config, model string, costService CostService) AIProvider {
	fmt.Printf("[NewOpenAIProvider] ✅ Using OpenAI web search\n")
	fmt.Printf("[NewOpenAIProvider]   - API: api.openai.com\n")
	fmt.Printf("[NewOpenAIProvider]   - Model: %s\n", model)

	return &openAIProvider{
		model:       model,
		costService: costService,
		apiKey:      cfg.OpenAIAPIKey,
		baseURL:     "https://api.openai.com/v1",
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *openAIProvider) GetProviderName() string {
	return "openai"
}

// WebSearchRequest represents the request structure for OpenAI web search API
type WebSearchRequest struct {
	Model string          `json:"model"`
	Tools []WebSearchTool `json:"tools"`
	Input string          `json:"input"`
}

type WebSearchTool struct {
	Type string `json:"type"`
}

// WebSearchResponse represents the response from OpenAI web search API
type WebSearchResponse struct {
	ID     string                `json:"id"`
	Object string                `json:"object"`
	Status string                `json:"status"`
	Output []WebSearchOutputItem `json:"output"`
	Usage  WebSearchUsage        `json:"usage"`
}

type WebSearchOutputItem struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Status  string             `json:"status,omitempty"`
	Content []WebSearchContent `json:"content,omitempty"`
}

type WebSearchContent struct {
	Type        string                `json:"type"`
	Text        string                `json:"text,omitempty"`
	Annotations []WebSearchAnnotation `json:"annotations,omitempty"`
}

type WebSearchAnnotation struct {
	Type       string `json:"type"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
}

type WebSearchUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// RunPrompt runs one prompt through OpenAI's web search responses API. The
// returned Raw payload keeps the citation annotations as url_citation tool
// results so downstream extraction sees the provider's native shape.
func (p *openAIProvider) RunPrompt(ctx context.Context, prompt string) (*ProviderResponse, error) {
	requestBody := WebSearchRequest{
		Model: p.model,
		Tools: []WebSearchTool{
			{Type: "web_search_preview"},
		},
		Input: prompt,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/responses", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search API returned status %d", resp.StatusCode)
	}

	var webSearchResp WebSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&webSearchResp); err != nil {
		return nil, fmt.Errorf("failed to decode web search response: %w", err)
	}

	// Extract the final message content and its citation annotations
	responseText := ""
	var annotations []WebSearchAnnotation
	for _, output := range webSearchResp.Output {
		if output.Type != "message" {
			continue
		}
		for _, content := range output.Content {
			if content.Type == "output_text" {
				responseText = content.Text
				annotations = content.Annotations
				break
			}
		}
		if responseText != "" {
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no message content found in web search response")
	}

	raw, err := buildToolResultsPayload(annotations)
	if err != nil {
		fmt.Printf("[RunPrompt] ⚠️ Failed to encode citation payload: %v\n", err)
	}

	return &ProviderResponse{
		Text:         responseText,
		Raw:          raw,
		InputTokens:  webSearchResp.Usage.InputTokens,
		OutputTokens: webSearchResp.Usage.OutputTokens,
		Cost:         p.costService.CalculateCost(p.GetProviderName(), p.model, webSearchResp.Usage.InputTokens, webSearchResp.Usage.OutputTokens, true),
	}, nil
}

func buildToolResultsPayload(annotations []WebSearchAnnotation) (json.RawMessage, error) {
	type toolResult struct {
		Type     string `json:"type"`
		URL      string `json:"url"`
		Title    string `json:"title,omitempty"`
		Position int    `json:"position,omitempty"`
	}
	results := make([]toolResult, 0, len(annotations))
	for _, annotation := range annotations {
		if annotation.Type != "url_citation" || annotation.URL == "" {
			continue
		}
		results = append(results, toolResult{
			Type:     "url_citation",
			URL:      annotation.URL,
			Title:    annotation.Title,
			Position: len(results) + 1,
		})
	}
	return json.Marshal(map[string]interface{}{"toolResults": results})
}
