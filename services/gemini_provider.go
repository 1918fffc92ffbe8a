// services/gemini_provider.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
)

type geminiProvider struct {
	apiKey      string
	model       string
	baseURL     string
	costService CostService
	httpClient  *http.Client
}

func NewGeminiProvider(cfg *config.Config, model string, costService CostService) AIProvider {
	fmt.Printf("[NewGeminiProvider] Creating Gemini provider\n")
	fmt.Printf("[NewGeminiProvider]   - API Key: %s\n", maskAPIKey(cfg.GeminiAPIKey))
	fmt.Printf("[NewGeminiProvider]   - Model: %s\n", model)

	return &geminiProvider{
		apiKey:      cfg.GeminiAPIKey,
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com/v1beta",
		costService: costService,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (p *geminiProvider) GetProviderName() string {
	return "gemini"
}

// Gemini generateContent request structures
type GeminiRequest struct {
	Contents []GeminiContent `json:"contents"`
	Tools    []GeminiTool    `json:"tools,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// Gemini generateContent response structures
type GeminiResponse struct {
	Candidates    []GeminiCandidate   `json:"candidates"`
	UsageMetadata GeminiUsageMetadata `json:"usageMetadata"`
}

type GeminiCandidate struct {
	Content           GeminiContent        `json:"content"`
	GroundingMetadata *GeminiGroundingInfo `json:"groundingMetadata,omitempty"`
	FinishReason      string               `json:"finishReason,omitempty"`
}

type GeminiGroundingInfo struct {
	GroundingChunks  []GeminiGroundingChunk `json:"groundingChunks,omitempty"`
	WebSearchQueries []string               `json:"webSearchQueries,omitempty"`
}

type GeminiGroundingChunk struct {
	Web *GeminiWebSource `json:"web,omitempty"`
}

type GeminiWebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// RunPrompt runs one prompt through Gemini's generateContent API with Google
// Search grounding. The candidate's grounding metadata is passed through as
// the Raw payload.
func (p *geminiProvider) RunPrompt(ctx context.Context, prompt string) (*ProviderResponse, error) {
	requestBody := GeminiRequest{
		Contents: []GeminiContent{{
			Role:  "user",
			Parts: []GeminiPart{{Text: prompt}},
		}},
		Tools: []GeminiTool{{GoogleSearch: &struct{}{}}},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(body))
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	candidate := geminiResp.Candidates[0]
	var textParts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}
	responseText := strings.Join(textParts, "")
	if responseText == "" {
		return nil, fmt.Errorf("no text content in candidate")
	}

	var raw json.RawMessage
	grounding := candidate.GroundingMetadata
	if grounding == nil {
		grounding = &GeminiGroundingInfo{}
	}
	// Carry the answer text alongside the grounding chunks so a grounding-less
	// answer with inline URLs still reaches the text harvest.
	raw, err = json.Marshal(map[string]interface{}{
		"response":          responseText,
		"groundingMetadata": grounding,
	})
	if err != nil {
		fmt.Printf("[RunPrompt] ⚠️ Failed to encode grounding payload: %v\n", err)
	}

	return &ProviderResponse{
		Text:         responseText,
		Raw:          raw,
		InputTokens:  geminiResp.UsageMetadata.PromptTokenCount,
		OutputTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
		Cost:         p.costService.CalculateCost(p.GetProviderName(), p.model, geminiResp.UsageMetadata.PromptTokenCount, geminiResp.UsageMetadata.CandidatesTokenCount, true),
	}, nil
}
