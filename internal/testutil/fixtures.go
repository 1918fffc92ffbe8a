package testutil

import (
	"encoding/json"
	"time"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// SampleConfig returns a test configuration
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:     "test-openai-key",
		AnthropicAPIKey:  "test-anthropic-key",
		PerplexityAPIKey: "test-perplexity-key",
		GeminiAPIKey:     "test-gemini-key",
		Analysis: config.AnalysisConfig{
			BatchSize:       3,
			PromptCount:     4,
			OpenAIModel:     "gpt-4.1",
			ClaudeModel:     "claude-sonnet-4-20250514",
			GeminiModel:     "gemini-2.0-flash",
			PerplexityModel: "sonar",
		},
	}
}

// SamplePrompts returns test prompts
func SamplePrompts() []string {
	return []string{
		"What are the best note-taking apps? Please cite your sources.",
		"What do reviewers say about Notion? Please cite your sources.",
		"What are the top alternatives to Notion? Please cite your sources.",
	}
}

// SampleResponses returns two provider responses sharing one source, shaped
// the way the aggregation pipeline expects them.
func SampleResponses(brand string, competitor string) []models.AIResponse {
	now := time.Now()
	return []models.AIResponse{
		{
			Provider:       "openai",
			Prompt:         SamplePrompts()[0],
			Response:       brand + " is a leading option.",
			BrandMentioned: true,
			Citations: []models.Citation{
				{URL: "https://techcrunch.com/review", Title: brand + " review", Source: "techcrunch.com", Position: 1, MentionedCompanies: []string{brand}},
				{URL: "https://g2.com/compare", Title: brand + " vs " + competitor, Source: "g2.com", Position: 2, MentionedCompanies: []string{brand, competitor}},
			},
			InputTokens:  100,
			OutputTokens: 50,
			Cost:         0.001,
			Timestamp:    now,
		},
		{
			Provider:       "anthropic",
			Prompt:         SamplePrompts()[0],
			Response:       competitor + " is a strong alternative.",
			BrandMentioned: false,
			Competitors:    []string{competitor},
			Citations: []models.Citation{
				{URL: "https://techcrunch.com/review", Title: brand + " review", Source: "techcrunch.com", Position: 1, MentionedCompanies: []string{brand}},
				{URL: "https://capterra.com/alt", Title: competitor + " alternatives", Source: "capterra.com", Position: 2, MentionedCompanies: []string{competitor}},
			},
			InputTokens:  90,
			OutputTokens: 45,
			Cost:         0.001,
			Timestamp:    now,
		},
	}
}

// SampleSourcesPayload returns a raw provider payload in the structured
// sources format.
func SampleSourcesPayload(urls ...string) json.RawMessage {
	type source struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	sources := make([]source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, source{URL: u, Title: "Sample coverage"})
	}
	raw, _ := json.Marshal(map[string]interface{}{"sources": sources})
	return raw
}
