// services/anthropic_provider.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
)

type anthropicProvider struct {
	client      *anthropic.Client
	model       string
	costService CostService
}

func NewAnthropicProvider(cfg *config.Config, model string, costService CostService) AIProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
	)

	return &anthropicProvider{
		client:      &client,
		model:       model,
		costService: costService,
	}
}

func (p *anthropicProvider) GetProviderName() string {
	return "anthropic"
}

// RunPrompt runs one prompt with the web search tool enabled. The response's
// search tool results are re-emitted as agent steps in the Raw payload.
func (p *anthropicProvider) RunPrompt(ctx context.Context, prompt string) (*ProviderResponse, error) {
	messages := []anthropic.MessageParam{{
		Content: []anthropic.ContentBlockParamUnion{{
			OfText: &anthropic.TextBlockParam{Text: prompt},
		}},
		Role: anthropic.MessageParamRoleUser,
	}}

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2000,
		Messages:  messages,
		Tools: []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(5),
			},
		}},
		Temperature: anthropic.Float(0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("message request failed: %w", err)
	}

	fullResponse := p.extractResponseText(*response)
	raw := p.buildStepsPayload(*response)

	return &ProviderResponse{
		Text:         fullResponse,
		Raw:          raw,
		InputTokens:  int(response.Usage.InputTokens),
		OutputTokens: int(response.Usage.OutputTokens),
		Cost:         p.costService.CalculateCost(p.GetProviderName(), p.model, int(response.Usage.InputTokens), int(response.Usage.OutputTokens), true),
	}, nil
}

func (p *anthropicProvider) extractResponseText(response anthropic.Message) string {
	var textParts []string

	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}

	return strings.Join(textParts, "")
}

// buildStepsPayload walks the response's tool result blocks via their wire
// JSON, which is stabler across SDK versions than the content block unions.
func (p *anthropicProvider) buildStepsPayload(response anthropic.Message) json.RawMessage {
	encoded, err := json.Marshal(response.Content)
	if err != nil {
		fmt.Printf("[buildStepsPayload] ⚠️ Failed to encode content blocks: %v\n", err)
		return nil
	}

	var blocks []struct {
		Type    string `json:"type"`
		Content []struct {
			Type  string `json:"type"`
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"content"`
	}
	if err := json.Unmarshal(encoded, &blocks); err != nil {
		fmt.Printf("[buildStepsPayload] ⚠️ Failed to decode content blocks: %v\n", err)
		return nil
	}

	type searchResult struct {
		URL      string `json:"url"`
		Title    string `json:"title,omitempty"`
		Position int    `json:"position,omitempty"`
	}
	type toolCall struct {
		Results []searchResult `json:"results"`
	}
	type step struct {
		ToolCalls []toolCall `json:"toolCalls"`
	}

	var calls []toolCall
	position := 0
	for _, block := range blocks {
		if block.Type != "web_search_tool_result" {
			continue
		}
		var results []searchResult
		for _, item := range block.Content {
			if item.Type != "web_search_result" || item.URL == "" {
				continue
			}
			position++
			results = append(results, searchResult{URL: item.URL, Title: item.Title, Position: position})
		}
		if len(results) > 0 {
			calls = append(calls, toolCall{Results: results})
		}
	}

	payload := map[string]interface{}{"steps": []step{}}
	if len(calls) > 0 {
		payload["steps"] = []step{{ToolCalls: calls}}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return raw
}
