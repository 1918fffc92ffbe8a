package citations

import (
	"testing"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
	"github.com/BrandLens-AI/brandlens-workflows/internal/testutil"
)

func cite(url string, mentions ...string) models.Citation {
	return models.Citation{
		URL:                url,
		Source:             ExtractDomain(url),
		MentionedCompanies: mentions,
	}
}

func TestAnalyzeCitationsMergesSharedURL(t *testing.T) {
	responses := []models.AIResponse{
		{Provider: "openai", Citations: []models.Citation{cite("https://g2.com/a", "Acme")}},
		{Provider: "anthropic", Citations: []models.Citation{cite("https://g2.com/a", "Acme")}},
	}

	analysis := AnalyzeCitations(responses, "Acme", nil)

	if analysis.TotalSources != 1 {
		t.Fatalf("TotalSources = %d, want 1", analysis.TotalSources)
	}
	top := analysis.TopSources[0]
	if top.Frequency != 2 {
		t.Errorf("Frequency = %d, want 2", top.Frequency)
	}
	if len(top.Providers) != 2 || top.Providers[0] != "openai" || top.Providers[1] != "anthropic" {
		t.Errorf("Providers = %v, want [openai anthropic]", top.Providers)
	}
	if analysis.BrandCitations.TotalCitations != 2 {
		t.Errorf("BrandCitations.TotalCitations = %d, want 2", analysis.BrandCitations.TotalCitations)
	}
}

func TestAnalyzeCitationsFrequencyInvariant(t *testing.T) {
	responses := []models.AIResponse{
		{Provider: "openai", Citations: []models.Citation{
			cite("https://g2.com/a", "Acme"),
			cite("https://forbes.com/x"),
			cite("https://g2.com/a", "Zenith"),
		}},
		{Provider: "perplexity", Citations: []models.Citation{
			cite("https://reuters.com/y", "Zenith"),
			cite("https://forbes.com/x", "Acme"),
		}},
	}

	analysis := AnalyzeCitations(responses, "Acme", []string{"Zenith"})

	rawCount := 5
	sum := 0
	for _, source := range analysis.TopSources {
		sum += source.Frequency
	}
	if sum != rawCount {
		t.Errorf("sum of frequencies = %d, want %d (every citation counted exactly once)", sum, rawCount)
	}
}

func TestAnalyzeCitationsUnionMonotonicity(t *testing.T) {
	responses := []models.AIResponse{
		{Provider: "openai", Citations: []models.Citation{
			cite("https://g2.com/a", "Acme"),
			cite("https://g2.com/a", "Zenith"),
			cite("https://g2.com/a"),
		}},
	}

	analysis := AnalyzeCitations(responses, "Acme", []string{"Zenith"})

	top := analysis.TopSources[0]
	if len(top.MentionedCompanies) != 2 {
		t.Errorf("mentioned companies should union to 2 entries, got %v", top.MentionedCompanies)
	}
	if top.Frequency != 3 {
		t.Errorf("Frequency = %d, want 3", top.Frequency)
	}
}

func TestAnalyzeCitationsCoMentionLandsInBothBuckets(t *testing.T) {
	responses := []models.AIResponse{
		{Provider: "openai", Citations: []models.Citation{
			cite("https://forbes.com/x", "Acme", "Zenith"),
		}},
	}

	analysis := AnalyzeCitations(responses, "Acme", []string{"Zenith"})

	if analysis.BrandCitations.TotalCitations != 1 {
		t.Errorf("co-mention should count for brand, got %d", analysis.BrandCitations.TotalCitations)
	}
	if analysis.CompetitorCitations["Zenith"].TotalCitations != 1 {
		t.Errorf("co-mention should count for competitor, got %d", analysis.CompetitorCitations["Zenith"].TotalCitations)
	}
}

func TestAnalyzeCitationsStableTieOrdering(t *testing.T) {
	// Two URLs with equal frequency must keep first-seen order.
	responses := []models.AIResponse{
		{Provider: "openai", Citations: []models.Citation{
			cite("https://first.com/a"),
			cite("https://second.com/b"),
		}},
	}

	analysis := AnalyzeCitations(responses, "Acme", nil)
	if analysis.TopSources[0].URL != "https://first.com/a" {
		t.Errorf("equal-frequency sources must keep insertion order, got %q first", analysis.TopSources[0].URL)
	}
}

func TestAnalyzeCitationsProviderBreakdown(t *testing.T) {
	responses := []models.AIResponse{
		{Provider: "openai", Citations: []models.Citation{cite("https://g2.com/a")}},
		{Provider: "anthropic", Citations: []models.Citation{
			cite("https://g2.com/a"),
			cite("https://forbes.com/x"),
		}},
	}

	analysis := AnalyzeCitations(responses, "Acme", nil)

	if len(analysis.ProviderBreakdown) != 2 {
		t.Fatalf("breakdown providers = %d, want 2", len(analysis.ProviderBreakdown))
	}
	if len(analysis.ProviderBreakdown["openai"]) != 1 {
		t.Errorf("openai sources = %d, want 1", len(analysis.ProviderBreakdown["openai"]))
	}
	if len(analysis.ProviderBreakdown["anthropic"]) != 2 {
		t.Errorf("anthropic sources = %d, want 2", len(analysis.ProviderBreakdown["anthropic"]))
	}
	// The per-provider fold is independent of the global one.
	if analysis.ProviderBreakdown["anthropic"][0].Frequency != 1 {
		t.Errorf("per-provider frequency should not include other providers' citations")
	}
}

func TestAnalyzeCitationsTopDomainsTop5(t *testing.T) {
	var cites []models.Citation
	domains := []string{"a.com", "b.com", "c.com", "d.com", "e.com", "f.com"}
	for i, domain := range domains {
		// a.com cited 6 times, b.com 5 times, ... f.com once.
		for j := 0; j <= len(domains)-1-i; j++ {
			cites = append(cites, cite("https://"+domain+"/p", "Acme"))
		}
	}

	analysis := AnalyzeCitations([]models.AIResponse{{Provider: "openai", Citations: cites}}, "Acme", nil)

	top := analysis.BrandCitations.TopDomains
	if len(top) != 5 {
		t.Fatalf("TopDomains length = %d, want 5", len(top))
	}
	if top[0].Domain != "a.com" || top[0].Count != 6 {
		t.Errorf("top domain = %+v, want a.com with 6", top[0])
	}
	if top[4].Domain != "e.com" {
		t.Errorf("fifth domain = %q, want e.com (f.com cut off)", top[4].Domain)
	}
}

func TestAnalyzeCitationsEmptyInput(t *testing.T) {
	analysis := AnalyzeCitations(nil, "Acme", []string{"Zenith"})

	if analysis.TotalSources != 0 {
		t.Errorf("TotalSources = %d, want 0", analysis.TotalSources)
	}
	if analysis.BrandCitations.TotalCitations != 0 {
		t.Errorf("brand citations should be 0")
	}
	if _, ok := analysis.CompetitorCitations["Zenith"]; !ok {
		t.Error("competitor bucket should exist even when empty")
	}
}

func TestAnalyzeCitationsFixtureResponses(t *testing.T) {
	responses := testutil.SampleResponses("Acme", "Rival")

	analysis := AnalyzeCitations(responses, "Acme", []string{"Rival"})

	if analysis.TotalSources != 3 {
		t.Fatalf("TotalSources = %d, want 3", analysis.TotalSources)
	}
	top := analysis.TopSources[0]
	if top.URL != "https://techcrunch.com/review" || top.Frequency != 2 {
		t.Errorf("top source = %+v, want techcrunch with frequency 2", top)
	}
	if len(top.Providers) != 2 {
		t.Errorf("Providers = %v, want both providers", top.Providers)
	}
	if analysis.BrandCitations.TotalCitations != 3 {
		t.Errorf("BrandCitations.TotalCitations = %d, want 3", analysis.BrandCitations.TotalCitations)
	}
	if rival := analysis.CompetitorCitations["Rival"]; rival.TotalCitations != 2 {
		t.Errorf("Rival citations = %d, want 2", rival.TotalCitations)
	}
	if len(analysis.ProviderBreakdown) != 2 {
		t.Errorf("ProviderBreakdown has %d providers, want 2", len(analysis.ProviderBreakdown))
	}
}
