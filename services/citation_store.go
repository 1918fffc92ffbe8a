// services/citation_store.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BrandLens-AI/brandlens-workflows/internal/citations"
	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// citationStore bridges the in-memory citation model and the flat citation
// tables. Writes are append-only and best-effort: a failed row is logged and
// counted, not fatal.
type citationStore struct {
	citationRepo CitationRepository
	sourceRepo   CitationSourceRepository
}

func NewCitationStore(citationRepo CitationRepository, sourceRepo CitationSourceRepository) CitationStore {
	return &citationStore{
		citationRepo: citationRepo,
		sourceRepo:   sourceRepo,
	}
}

// SaveCitations writes one row per citation, verbatim: synthetic fallback
// citations are stored indistinguishable from real ones apart from their
// synthetic flag. Provider names are lowercased on the way in so rows from
// differently-cased callers key the same.
func (s *citationStore) SaveCitations(ctx context.Context, analysisID, provider string, promptID *string, cites []models.Citation) error {
	provider = strings.ToLower(provider)
	saved := 0
	var firstErr error
	for _, cite := range cites {
		mentioned, err := json.Marshal(cite.MentionedCompanies)
		if err != nil {
			mentioned = []byte("[]")
		}
		row := &models.CitationRow{
			AnalysisID:         analysisID,
			Provider:           provider,
			PromptID:           promptID,
			URL:                cite.URL,
			Title:              cite.Title,
			Snippet:            cite.Snippet,
			Source:             cite.Source,
			Date:               cite.Date,
			Position:           cite.Position,
			MentionedCompanies: string(mentioned),
			Synthetic:          cite.Synthetic,
		}
		if err := s.citationRepo.Create(ctx, row); err != nil {
			fmt.Printf("[SaveCitations] ⚠️ Failed to save citation %s: %v\n", cite.URL, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	fmt.Printf("[SaveCitations] Saved %d/%d citations for analysis %s (%s)\n", saved, len(cites), analysisID, provider)
	if saved == 0 && len(cites) > 0 {
		return fmt.Errorf("failed to save any citations: %w", firstErr)
	}
	return nil
}

// SaveAggregatedSources writes one row per deduplicated source in the
// aggregate's TopSources order.
func (s *citationStore) SaveAggregatedSources(ctx context.Context, analysisID string, analysis *models.CitationAnalysis) error {
	if analysis == nil {
		return nil
	}
	saved := 0
	var firstErr error
	for _, source := range analysis.TopSources {
		providers, err := json.Marshal(lowercaseAll(source.Providers))
		if err != nil {
			providers = []byte("[]")
		}
		mentioned, err := json.Marshal(source.MentionedCompanies)
		if err != nil {
			mentioned = []byte("[]")
		}
		row := &models.CitationSourceRow{
			AnalysisID:         analysisID,
			URL:                source.URL,
			Domain:             source.Domain,
			Title:              source.Title,
			Frequency:          source.Frequency,
			Providers:          string(providers),
			MentionedCompanies: string(mentioned),
		}
		if err := s.sourceRepo.Create(ctx, row); err != nil {
			fmt.Printf("[SaveAggregatedSources] ⚠️ Failed to save source %s: %v\n", source.URL, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	fmt.Printf("[SaveAggregatedSources] Saved %d/%d sources for analysis %s\n", saved, len(analysis.TopSources), analysisID)
	if saved == 0 && len(analysis.TopSources) > 0 {
		return fmt.Errorf("failed to save any sources: %w", firstErr)
	}
	return nil
}

// ReconstructCitationAnalysis rebuilds the aggregate from persisted rows.
// The top sources come straight from the citation_sources rows; the per-
// company buckets and provider breakdown are re-derived by replaying the raw
// citation rows through the same fold the live pipeline uses.
func (s *citationStore) ReconstructCitationAnalysis(ctx context.Context, analysisID, brandName string, competitors []string) (*models.CitationAnalysis, error) {
	sourceRows, err := s.sourceRepo.GetByAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to load citation sources: %w", err)
	}
	if len(sourceRows) == 0 {
		return nil, nil
	}

	citationRows, err := s.citationRepo.GetByAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to load citations: %w", err)
	}

	// Replay the raw rows grouped per provider so the bucket and breakdown
	// semantics match a live run exactly.
	responses := rowsToResponses(citationRows)
	analysis := citations.AnalyzeCitations(responses, brandName, competitors)

	// Source rows are the stored aggregate truth; they win over the replay.
	topSources := make([]models.SourceFrequency, 0, len(sourceRows))
	for _, row := range sourceRows {
		source := models.SourceFrequency{
			URL:       row.URL,
			Domain:    row.Domain,
			Title:     row.Title,
			Frequency: row.Frequency,
		}
		if row.Providers != "" {
			if err := json.Unmarshal([]byte(row.Providers), &source.Providers); err != nil {
				fmt.Printf("[ReconstructCitationAnalysis] ⚠️ Bad providers payload for %s: %v\n", row.URL, err)
			}
		}
		if row.MentionedCompanies != "" {
			if err := json.Unmarshal([]byte(row.MentionedCompanies), &source.MentionedCompanies); err != nil {
				fmt.Printf("[ReconstructCitationAnalysis] ⚠️ Bad mentioned companies payload for %s: %v\n", row.URL, err)
			}
		}
		topSources = append(topSources, source)
	}
	analysis.TopSources = topSources
	analysis.TotalSources = len(topSources)

	fmt.Printf("[ReconstructCitationAnalysis] Rebuilt analysis %s: %d sources, %d citation rows\n", analysisID, len(topSources), len(citationRows))
	return analysis, nil
}

// rowsToResponses groups raw citation rows per provider into synthetic
// responses so the replay sees the same shape the live fold does. Row order
// within a provider is preserved.
func rowsToResponses(rows []*models.CitationRow) []models.AIResponse {
	index := make(map[string]int)
	var responses []models.AIResponse
	for _, row := range rows {
		cite := models.Citation{
			URL:       row.URL,
			Title:     row.Title,
			Snippet:   row.Snippet,
			Source:    row.Source,
			Date:      row.Date,
			Position:  row.Position,
			Synthetic: row.Synthetic,
		}
		if row.MentionedCompanies != "" {
			if err := json.Unmarshal([]byte(row.MentionedCompanies), &cite.MentionedCompanies); err != nil {
				fmt.Printf("[rowsToResponses] ⚠️ Bad mentioned companies payload for %s: %v\n", row.URL, err)
			}
		}
		i, ok := index[row.Provider]
		if !ok {
			i = len(responses)
			index[row.Provider] = i
			responses = append(responses, models.AIResponse{Provider: row.Provider})
		}
		responses[i].Citations = append(responses[i].Citations, cite)
	}
	return responses
}

func lowercaseAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
