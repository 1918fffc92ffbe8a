package citations

import (
	"math"
	"testing"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

func positioned(url string, position int, mentions ...string) models.Citation {
	c := cite(url, mentions...)
	c.Position = position
	return c
}

func TestShareOfVoiceClosure(t *testing.T) {
	tests := []struct {
		name        string
		brandCount  int
		zenithCount int
		apexCount   int
	}{
		{"mixed counts", 3, 7, 2},
		{"brand only", 5, 0, 0},
		{"competitor only", 0, 4, 1},
		{"single citation", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cites []models.Citation
			for i := 0; i < tt.brandCount; i++ {
				cites = append(cites, cite("https://a.com/b", "Acme"))
			}
			for i := 0; i < tt.zenithCount; i++ {
				cites = append(cites, cite("https://b.com/z", "Zenith"))
			}
			for i := 0; i < tt.apexCount; i++ {
				cites = append(cites, cite("https://c.com/x", "Apex"))
			}

			metrics := CalculateBrandVsCompetitorMetrics(
				[]models.AIResponse{{Provider: "openai", Citations: cites}},
				"Acme", []string{"Zenith", "Apex"})

			sum := metrics.ShareOfVoice.Brand
			for _, pct := range metrics.ShareOfVoice.Competitors {
				sum += pct
			}
			if math.Abs(sum-100) > 0.02 {
				t.Errorf("share of voice sums to %.2f, want ~100", sum)
			}
		})
	}
}

func TestShareOfVoiceAllZero(t *testing.T) {
	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: []models.Citation{
			cite("https://a.com/untracked"),
		}}},
		"Acme", []string{"Zenith"})

	if metrics.ShareOfVoice.Brand != 0 || metrics.ShareOfVoice.Competitors["Zenith"] != 0 {
		t.Errorf("share of voice should be all zero with no tracked citations, got %+v", metrics.ShareOfVoice)
	}
	if metrics.TotalCitations != 1 {
		t.Errorf("TotalCitations = %d, want 1 (untracked citations still counted)", metrics.TotalCitations)
	}
	if metrics.TotalMentions != 0 {
		t.Errorf("TotalMentions = %d, want 0", metrics.TotalMentions)
	}
}

func TestCitationGapScenario(t *testing.T) {
	// Brand 3 citations, competitor Zenith 7, nothing untracked.
	var cites []models.Citation
	for i := 0; i < 3; i++ {
		cites = append(cites, cite("https://a.com/b", "Acme"))
	}
	for i := 0; i < 7; i++ {
		cites = append(cites, cite("https://b.com/z", "Zenith"))
	}

	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: cites}},
		"Acme", []string{"Zenith"})

	if metrics.ShareOfVoice.Brand != 30 {
		t.Errorf("brand share = %.2f, want 30", metrics.ShareOfVoice.Brand)
	}
	if metrics.ShareOfVoice.Competitors["Zenith"] != 70 {
		t.Errorf("Zenith share = %.2f, want 70", metrics.ShareOfVoice.Competitors["Zenith"])
	}

	gap := metrics.CitationGap
	if gap == nil {
		t.Fatal("expected a citation gap")
	}
	if gap.LeadingCompetitor != "Zenith" {
		t.Errorf("leading competitor = %q, want Zenith", gap.LeadingCompetitor)
	}
	if gap.Gap != 4 {
		t.Errorf("gap = %d, want 4", gap.Gap)
	}
	if gap.GapPercentage != 133.33 {
		t.Errorf("gap percentage = %.2f, want 133.33", gap.GapPercentage)
	}
}

func TestCitationGapBrandZero(t *testing.T) {
	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: []models.Citation{
			cite("https://b.com/z", "Zenith"),
		}}},
		"Acme", []string{"Zenith"})

	if metrics.CitationGap.GapPercentage != 100 {
		t.Errorf("zero-brand gap percentage = %.2f, want 100 by convention", metrics.CitationGap.GapPercentage)
	}
}

func TestCitationGapTieBrokenByInputOrder(t *testing.T) {
	var cites []models.Citation
	for i := 0; i < 2; i++ {
		cites = append(cites, cite("https://b.com/z", "Zenith"))
		cites = append(cites, cite("https://c.com/x", "Apex"))
	}

	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: cites}},
		"Acme", []string{"Zenith", "Apex"})

	if metrics.CitationGap.LeadingCompetitor != "Zenith" {
		t.Errorf("tie should go to the first competitor in input order, got %q",
			metrics.CitationGap.LeadingCompetitor)
	}
}

func TestCitationGapNoCompetitors(t *testing.T) {
	metrics := CalculateBrandVsCompetitorMetrics(nil, "Acme", nil)
	if metrics.CitationGap != nil {
		t.Errorf("no competitors should yield no gap, got %+v", metrics.CitationGap)
	}
}

func TestAveragePositionExcludesMissing(t *testing.T) {
	cites := []models.Citation{
		positioned("https://a.com/1", 1, "Acme"),
		positioned("https://a.com/2", 3, "Acme"),
		positioned("https://a.com/3", 0, "Acme"), // unknown position, excluded
	}

	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: cites}},
		"Acme", nil)

	if metrics.Brand.AveragePosition != 2 {
		t.Errorf("average position = %.2f, want 2 (missing positions excluded)", metrics.Brand.AveragePosition)
	}
}

func TestEntityPercentageUsesTotalCitations(t *testing.T) {
	cites := []models.Citation{
		cite("https://a.com/1", "Acme"),
		cite("https://b.com/2"), // untracked
		cite("https://c.com/3"), // untracked
		cite("https://d.com/4"), // untracked
	}

	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: cites}},
		"Acme", nil)

	// Percentage is over all citations; share of voice over tracked only.
	if metrics.Brand.Percentage != 25 {
		t.Errorf("brand percentage = %.2f, want 25", metrics.Brand.Percentage)
	}
	if metrics.ShareOfVoice.Brand != 100 {
		t.Errorf("brand share of voice = %.2f, want 100", metrics.ShareOfVoice.Brand)
	}
}

func TestUniqueDomains(t *testing.T) {
	cites := []models.Citation{
		cite("https://a.com/1", "Acme"),
		cite("https://a.com/2", "Acme"),
		cite("https://b.com/1", "Acme"),
	}

	metrics := CalculateBrandVsCompetitorMetrics(
		[]models.AIResponse{{Provider: "openai", Citations: cites}},
		"Acme", nil)

	if metrics.Brand.UniqueDomains != 2 {
		t.Errorf("unique domains = %d, want 2", metrics.Brand.UniqueDomains)
	}
	if metrics.Brand.CitationCount != 3 {
		t.Errorf("citation count = %d, want 3", metrics.Brand.CitationCount)
	}
}
