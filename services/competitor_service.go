// services/competitor_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
)

type competitorService struct {
	client *openai.Client
	model  string
}

func NewCompetitorService(cfg *config.Config) CompetitorService {
	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
	)

	return &competitorService{
		client: &client,
		model:  "gpt-4.1-mini",
	}
}

// IdentifyCompetitors asks the model for the brand's main competitors using
// structured outputs. Known competitors the caller already tracks are merged
// in first and never duplicated; output order is known-first then discovery
// order.
func (s *competitorService) IdentifyCompetitors(ctx context.Context, brandName, industry string, known []string) ([]string, error) {
	industryContext := ""
	if industry != "" {
		industryContext = fmt.Sprintf(" operating in the %s industry", industry)
	}

	prompt := fmt.Sprintf(`Identify the 3-5 most significant direct competitors of the company %s%s.

Rules:
- Only include real companies that compete for the same customers
- Use each company's common brand name, not its legal entity name
- Do not include %s itself
- Do not include generic categories or product names

Return only the competitor names.`, "`"+brandName+"`", industryContext, "`"+brandName+"`")

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "competitor_extraction",
		Description: openai.String("List of direct competitor company names"),
		Schema:      GenerateSchema[CompetitorListResponse](),
		Strict:      openai.Bool(true),
	}

	fmt.Printf("[IdentifyCompetitors] 🚀 Making AI call for competitors of %s...\n", brandName)

	chatResponse, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an expert market analyst. Identify real, direct competitors of the given company."),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(s.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to identify competitors: %w", err)
	}

	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	var extracted CompetitorListResponse
	if err := json.Unmarshal([]byte(chatResponse.Choices[0].Message.Content), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse competitor response: %w", err)
	}

	merged := mergeCompetitors(brandName, known, extracted.Competitors)
	fmt.Printf("[IdentifyCompetitors] ✅ Found %d competitors for %s\n", len(merged), brandName)
	return merged, nil
}

func mergeCompetitors(brandName string, known, discovered []string) []string {
	seen := make(map[string]bool)
	seen[strings.ToLower(strings.TrimSpace(brandName))] = true

	var out []string
	for _, list := range [][]string{known, discovered} {
		for _, name := range list {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}
