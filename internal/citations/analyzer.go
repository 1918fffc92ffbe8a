// internal/citations/analyzer.go
package citations

import (
	"sort"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// AnalyzeCitations folds every citation across the run's responses into the
// full citation aggregate: a URL-keyed frequency table, brand and
// per-competitor buckets, and a per-provider breakdown.
//
// The fold is a single pass in response order. Repeat URLs merge by union:
// providers and mentioned companies only ever grow. A citation that mentions
// several tracked companies lands in every matching bucket; citations are
// evidence of co-mention, not exclusive attribution.
//
// TopSources is ordered by descending frequency; equal frequencies keep
// first-seen order so output is reproducible for a fixed response order.
func AnalyzeCitations(responses []models.AIResponse, brandName string, competitors []string) *models.CitationAnalysis {
	freq := newSourceFold()
	providerFolds := make(map[string]*sourceFold)
	var providerOrder []string

	brandBucket := models.CitationsByCompany{Sources: []models.Citation{}}
	competitorBuckets := make(map[string]*models.CitationsByCompany, len(competitors))
	for _, name := range competitors {
		competitorBuckets[name] = &models.CitationsByCompany{Sources: []models.Citation{}}
	}

	for _, response := range responses {
		for _, citation := range response.Citations {
			freq.add(citation, response.Provider)

			pf, ok := providerFolds[response.Provider]
			if !ok {
				pf = newSourceFold()
				providerFolds[response.Provider] = pf
				providerOrder = append(providerOrder, response.Provider)
			}
			pf.add(citation, response.Provider)

			if containsName(citation.MentionedCompanies, brandName) {
				brandBucket.TotalCitations++
				brandBucket.Sources = append(brandBucket.Sources, citation)
			}
			for _, competitor := range competitors {
				if containsName(citation.MentionedCompanies, competitor) {
					bucket := competitorBuckets[competitor]
					bucket.TotalCitations++
					bucket.Sources = append(bucket.Sources, citation)
				}
			}
		}
	}

	brandBucket.TopDomains = topDomains(brandBucket.Sources, 5)

	competitorCitations := make(map[string]models.CitationsByCompany, len(competitors))
	for _, name := range competitors {
		bucket := competitorBuckets[name]
		bucket.TopDomains = topDomains(bucket.Sources, 5)
		competitorCitations[name] = *bucket
	}

	providerBreakdown := make(map[string][]models.SourceFrequency, len(providerOrder))
	for _, provider := range providerOrder {
		providerBreakdown[provider] = providerFolds[provider].sorted()
	}

	topSources := freq.sorted()

	return &models.CitationAnalysis{
		TotalSources:        len(topSources),
		TopSources:          topSources,
		BrandCitations:      brandBucket,
		CompetitorCitations: competitorCitations,
		ProviderBreakdown:   providerBreakdown,
	}
}

// sourceFold accumulates SourceFrequency entries keyed by URL while keeping
// first-seen insertion order for deterministic tie-breaking.
type sourceFold struct {
	index map[string]int
	rows  []models.SourceFrequency
}

func newSourceFold() *sourceFold {
	return &sourceFold{index: make(map[string]int)}
}

func (f *sourceFold) add(citation models.Citation, provider string) {
	idx, ok := f.index[citation.URL]
	if !ok {
		f.index[citation.URL] = len(f.rows)
		f.rows = append(f.rows, models.SourceFrequency{
			URL:    citation.URL,
			Domain: domainOf(citation),
			Title:  citation.Title,
		})
		idx = len(f.rows) - 1
	}

	row := &f.rows[idx]
	row.Frequency++
	if row.Title == "" {
		row.Title = citation.Title
	}
	row.Providers = appendUnique(row.Providers, provider)
	for _, company := range citation.MentionedCompanies {
		row.MentionedCompanies = appendUnique(row.MentionedCompanies, company)
	}
}

// sorted returns the fold's rows by descending frequency, first-seen order
// on ties.
func (f *sourceFold) sorted() []models.SourceFrequency {
	out := make([]models.SourceFrequency, len(f.rows))
	copy(out, f.rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	return out
}

// topDomains groups a citation subset by domain and returns the top n by
// count, ties broken by first encounter.
func topDomains(sources []models.Citation, n int) []models.DomainCount {
	index := make(map[string]int)
	var counts []models.DomainCount
	for _, citation := range sources {
		domain := domainOf(citation)
		if domain == "" {
			continue
		}
		idx, ok := index[domain]
		if !ok {
			index[domain] = len(counts)
			counts = append(counts, models.DomainCount{Domain: domain})
			idx = len(counts) - 1
		}
		counts[idx].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	if counts == nil {
		counts = []models.DomainCount{}
	}
	return counts
}

func domainOf(citation models.Citation) string {
	if citation.Source != "" {
		return citation.Source
	}
	return ExtractDomain(citation.URL)
}

func containsName(names []string, target string) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
