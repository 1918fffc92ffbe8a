// internal/citations/metrics.go
package citations

import (
	"math"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// CalculateBrandVsCompetitorMetrics derives the competitive citation view
// over one run's responses.
//
// Two different denominators are in play and must not be confused:
// per-entity Percentage is over ALL citations in the run (including ones
// that mention no tracked company), while ShareOfVoice is over
// tracked-entity citations only, so share-of-voice percentages sum to 100
// across the brand and competitors whenever any tracked citation exists.
func CalculateBrandVsCompetitorMetrics(responses []models.AIResponse, brandName string, competitors []string) *models.BrandVsCompetitorCitationMetrics {
	var all []models.Citation
	for _, response := range responses {
		all = append(all, response.Citations...)
	}
	total := len(all)

	brandSubset := subsetMentioning(all, brandName)
	brand := entityMetrics(brandName, brandSubset, total)

	competitorMetrics := make(map[string]models.EntityCitationMetrics, len(competitors))
	competitorCounts := make(map[string]int, len(competitors))
	trackedTotal := len(brandSubset)
	for _, name := range competitors {
		subset := subsetMentioning(all, name)
		competitorMetrics[name] = entityMetrics(name, subset, total)
		competitorCounts[name] = len(subset)
		trackedTotal += len(subset)
	}

	sov := models.ShareOfVoice{Competitors: make(map[string]float64, len(competitors))}
	if trackedTotal > 0 {
		sov.Brand = round2(float64(len(brandSubset)) / float64(trackedTotal) * 100)
		for _, name := range competitors {
			sov.Competitors[name] = round2(float64(competitorCounts[name]) / float64(trackedTotal) * 100)
		}
	} else {
		for _, name := range competitors {
			sov.Competitors[name] = 0
		}
	}

	return &models.BrandVsCompetitorCitationMetrics{
		TotalCitations: total,
		TotalMentions:  trackedTotal,
		Brand:          brand,
		Competitors:    competitorMetrics,
		ShareOfVoice:   sov,
		CitationGap:    citationGap(len(brandSubset), competitors, competitorCounts),
	}
}

func subsetMentioning(all []models.Citation, name string) []models.Citation {
	var subset []models.Citation
	for _, citation := range all {
		if containsName(citation.MentionedCompanies, name) {
			subset = append(subset, citation)
		}
	}
	return subset
}

func entityMetrics(name string, subset []models.Citation, total int) models.EntityCitationMetrics {
	metrics := models.EntityCitationMetrics{
		Name:          name,
		CitationCount: len(subset),
		TopDomains:    topDomains(subset, 5),
	}

	if total > 0 {
		metrics.Percentage = round2(float64(len(subset)) / float64(total) * 100)
	}

	domains := make(map[string]bool)
	for _, citation := range subset {
		if domain := domainOf(citation); domain != "" {
			domains[domain] = true
		}
	}
	metrics.UniqueDomains = len(domains)

	// Citations without a recorded position are excluded from the average
	// rather than counted as zero, which would bias the rank downward.
	positionSum := 0
	positioned := 0
	for _, citation := range subset {
		if citation.Position > 0 {
			positionSum += citation.Position
			positioned++
		}
	}
	if positioned > 0 {
		metrics.AveragePosition = round2(float64(positionSum) / float64(positioned))
	}

	return metrics
}

// citationGap finds the single most-cited competitor (ties broken by the
// order of the competitors input) and the brand's deficit against it. A
// brand with zero citations facing any competitor citations reports a 100%
// gap by convention.
func citationGap(brandCount int, competitors []string, counts map[string]int) *models.CitationGap {
	if len(competitors) == 0 {
		return nil
	}

	leading := competitors[0]
	for _, name := range competitors[1:] {
		if counts[name] > counts[leading] {
			leading = name
		}
	}

	leadingCount := counts[leading]
	gap := &models.CitationGap{
		LeadingCompetitor: leading,
		Gap:               leadingCount - brandCount,
	}

	switch {
	case brandCount > 0:
		gap.GapPercentage = round2(float64(leadingCount-brandCount) / float64(brandCount) * 100)
	case leadingCount > 0:
		gap.GapPercentage = 100
	}

	return gap
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
