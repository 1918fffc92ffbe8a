package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BrandLens-AI/brandlens-workflows/internal/citations"
	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
	"github.com/BrandLens-AI/brandlens-workflows/services"
)

func main() {
	providerFlag := flag.String("provider", "openai", "provider to test: openai, anthropic, perplexity, gemini, all")
	brandFlag := flag.String("brand", "Notion", "brand name to probe for")
	competitorsFlag := flag.String("competitors", "Evernote,Obsidian", "comma-separated competitor names")
	flag.Parse()

	fmt.Println("🧪 AI Provider Test Script")

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  No .env file found, using environment variables")
	} else {
		fmt.Println("✅ Loaded .env file")
	}
	fmt.Println()

	cfg := config.Load()
	costService := services.NewCostService()

	providers := map[string]services.AIProvider{
		"openai":     services.NewOpenAIProvider(cfg, cfg.Analysis.OpenAIModel, costService),
		"anthropic":  services.NewAnthropicProvider(cfg, cfg.Analysis.ClaudeModel, costService),
		"perplexity": services.NewPerplexityProvider(cfg, cfg.Analysis.PerplexityModel, costService),
		"gemini":     services.NewGeminiProvider(cfg, cfg.Analysis.GeminiModel, costService),
	}

	var selected []services.AIProvider
	if *providerFlag == "all" {
		for _, p := range providers {
			selected = append(selected, p)
		}
	} else {
		p, ok := providers[*providerFlag]
		if !ok {
			fmt.Printf("❌ Unknown provider: %s\n", *providerFlag)
			os.Exit(1)
		}
		selected = append(selected, p)
	}

	brand := *brandFlag
	var competitors []string
	for _, name := range strings.Split(*competitorsFlag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			competitors = append(competitors, name)
		}
	}

	prompt := fmt.Sprintf("What are the best alternatives to %s? Please cite your sources.", brand)
	fmt.Printf("📋 Prompt: %s\n\n", prompt)

	ctx := context.Background()
	for _, provider := range selected {
		testProvider(ctx, provider, prompt, brand, competitors)
	}
}

func testProvider(ctx context.Context, provider services.AIProvider, prompt, brand string, competitors []string) {
	name := provider.GetProviderName()
	fmt.Printf("\n🎯 Testing Provider: %s\n", name)

	start := time.Now()
	resp, err := provider.RunPrompt(ctx, prompt)
	if err != nil {
		fmt.Printf("❌ Call failed: %v\n", err)
		return
	}
	duration := time.Since(start)

	fmt.Printf("✅ Call completed in %v\n", duration)
	fmt.Printf("  Response: %s\n", truncate(resp.Text, 200))
	fmt.Printf("  Tokens: %d input, %d output\n", resp.InputTokens, resp.OutputTokens)
	fmt.Printf("  Cost: $%.6f\n", resp.Cost)
	fmt.Printf("  Raw format: %s\n", citations.DetectFormat(resp.Raw))

	cites := citations.Extract(name, resp.Raw, brand, competitors)
	fmt.Printf("  Citations: %d\n", len(cites))
	for i, cite := range cites {
		marker := ""
		if cite.Synthetic {
			marker = " (synthetic)"
		}
		fmt.Printf("    %d. %s [%s]%s mentions=%v\n", i+1, cite.URL, cite.Source, marker, cite.MentionedCompanies)
	}

	saveResponse(name, resp)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func saveResponse(providerName string, resp *services.ProviderResponse) {
	filename := fmt.Sprintf("%s_%d.json", providerName, time.Now().Unix())
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Printf("  ❌ Failed to marshal response: %v\n", err)
		return
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("  ❌ Failed to save %s: %v\n", filename, err)
		return
	}
	fmt.Printf("  💾 Saved: %s\n", filename)
}
