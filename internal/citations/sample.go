// internal/citations/sample.go
package citations

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// samplePool is the fixed set of publisher domains fallback citations are
// drawn from. Keep this list stable: tests assert membership.
var samplePool = []struct {
	domain string
	title  string
}{
	{"g2.com", "%s Reviews, Ratings & Features"},
	{"capterra.com", "%s Pricing, Alternatives & More"},
	{"trustradius.com", "%s Reviews & Ratings"},
	{"forbes.com", "The Companies Reshaping Their Industry, Including %s"},
	{"techcrunch.com", "%s and Rivals Compete for Market Attention"},
	{"gartner.com", "%s Peer Insights and Competitor Comparison"},
	{"businessinsider.com", "What Analysts Say About %s"},
	{"reuters.com", "Industry Briefing: %s and Competitors"},
}

// SampleCitations generates 2-4 plausible placeholder citations over the
// fixed publisher pool. Output is fully determined by the seed so fallback
// data is reproducible for one analysis run. Every citation is tagged
// Synthetic so consumers can tell placeholder data from real extraction
// output.
func SampleCitations(seed int64, brandName string, competitorNames []string) []models.Citation {
	r := rand.New(rand.NewSource(seed))
	count := 2 + r.Intn(3)

	// Pick distinct pool entries.
	order := r.Perm(len(samplePool))

	citations := make([]models.Citation, 0, count)
	for i := 0; i < count; i++ {
		entry := samplePool[order[i]]
		slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(brandName), " ", "-"))

		mentioned := []string{brandName}
		snippet := fmt.Sprintf("An overview of %s, its product positioning, and customer feedback.", brandName)
		if len(competitorNames) > 0 && r.Intn(2) == 0 {
			competitor := competitorNames[r.Intn(len(competitorNames))]
			mentioned = append(mentioned, competitor)
			snippet = fmt.Sprintf("How %s compares against %s on features, pricing, and customer satisfaction.", brandName, competitor)
		}

		citations = append(citations, models.Citation{
			URL:                fmt.Sprintf("https://%s/companies/%s", entry.domain, slug),
			Title:              fmt.Sprintf(entry.title, brandName),
			Snippet:            snippet,
			Source:             entry.domain,
			Position:           i + 1,
			MentionedCompanies: mentioned,
			Synthetic:          true,
		})
	}

	return citations
}

// SampleSeed derives a stable fallback seed from the provider and brand so
// repeated extraction attempts for the same run produce identical placeholder
// data.
func SampleSeed(providerName, brandName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(providerName)))
	h.Write([]byte{0})
	h.Write([]byte(brandName))
	return int64(h.Sum64())
}

// SamplePoolDomains returns the publisher domains the fallback generator
// draws from.
func SamplePoolDomains() []string {
	domains := make([]string, len(samplePool))
	for i, entry := range samplePool {
		domains[i] = entry.domain
	}
	return domains
}
