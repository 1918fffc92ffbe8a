// services/citation_store_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

type fakeCitationRepo struct {
	rows []*models.CitationRow
}

func (f *fakeCitationRepo) Create(_ context.Context, row *models.CitationRow) error {
	copied := *row
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeCitationRepo) GetByAnalysis(_ context.Context, analysisID string) ([]*models.CitationRow, error) {
	var out []*models.CitationRow
	for _, row := range f.rows {
		if row.AnalysisID == analysisID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeSourceRepo struct {
	rows []*models.CitationSourceRow
}

func (f *fakeSourceRepo) Create(_ context.Context, row *models.CitationSourceRow) error {
	copied := *row
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeSourceRepo) GetByAnalysis(_ context.Context, analysisID string) ([]*models.CitationSourceRow, error) {
	var out []*models.CitationSourceRow
	for _, row := range f.rows {
		if row.AnalysisID == analysisID {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestSaveCitationsLowercasesProvider(t *testing.T) {
	repo := &fakeCitationRepo{}
	store := NewCitationStore(repo, &fakeSourceRepo{})

	cites := []models.Citation{
		{URL: "https://techcrunch.com/a", Title: "A", Position: 1},
		{URL: "https://forbes.com/b", Title: "B", Position: 2, Synthetic: true},
	}
	err := store.SaveCitations(context.Background(), "an-1", "OpenAI", nil, cites)
	require.NoError(t, err)
	require.Len(t, repo.rows, 2)

	for _, row := range repo.rows {
		assert.Equal(t, "openai", row.Provider)
		assert.Equal(t, "an-1", row.AnalysisID)
	}
	assert.False(t, repo.rows[0].Synthetic)
	assert.True(t, repo.rows[1].Synthetic)
}

func TestSaveCitationsKeepsDuplicateURLs(t *testing.T) {
	repo := &fakeCitationRepo{}
	store := NewCitationStore(repo, &fakeSourceRepo{})

	cite := models.Citation{URL: "https://techcrunch.com/a", Position: 1}
	require.NoError(t, store.SaveCitations(context.Background(), "an-1", "openai", nil, []models.Citation{cite}))
	require.NoError(t, store.SaveCitations(context.Background(), "an-1", "openai", nil, []models.Citation{cite}))

	assert.Len(t, repo.rows, 2, "repeated saves append, never upsert")
}

func TestReconstructReturnsNilWithoutSources(t *testing.T) {
	store := NewCitationStore(&fakeCitationRepo{}, &fakeSourceRepo{})

	analysis, err := store.ReconstructCitationAnalysis(context.Background(), "missing", "Acme", []string{"Rival"})
	require.NoError(t, err)
	assert.Nil(t, analysis)
}

func TestReconstructRoundTrip(t *testing.T) {
	citationRepo := &fakeCitationRepo{}
	sourceRepo := &fakeSourceRepo{}
	store := NewCitationStore(citationRepo, sourceRepo)
	ctx := context.Background()

	cites := []models.Citation{
		{URL: "https://techcrunch.com/acme", Title: "Acme raises", Source: "techcrunch.com", Position: 1, MentionedCompanies: []string{"Acme"}},
		{URL: "https://forbes.com/rival", Title: "Rival review", Source: "forbes.com", Position: 2, MentionedCompanies: []string{"Rival"}},
	}
	require.NoError(t, store.SaveCitations(ctx, "an-1", "openai", nil, cites))
	require.NoError(t, store.SaveCitations(ctx, "an-1", "anthropic", nil, cites[:1]))

	aggregate := &models.CitationAnalysis{
		TotalSources: 2,
		TopSources: []models.SourceFrequency{
			{URL: "https://techcrunch.com/acme", Domain: "techcrunch.com", Title: "Acme raises", Frequency: 2, Providers: []string{"openai", "anthropic"}, MentionedCompanies: []string{"Acme"}},
			{URL: "https://forbes.com/rival", Domain: "forbes.com", Title: "Rival review", Frequency: 1, Providers: []string{"openai"}, MentionedCompanies: []string{"Rival"}},
		},
	}
	require.NoError(t, store.SaveAggregatedSources(ctx, "an-1", aggregate))

	rebuilt, err := store.ReconstructCitationAnalysis(ctx, "an-1", "Acme", []string{"Rival"})
	require.NoError(t, err)
	require.NotNil(t, rebuilt)

	assert.Equal(t, 2, rebuilt.TotalSources)
	require.Len(t, rebuilt.TopSources, 2)
	assert.Equal(t, "https://techcrunch.com/acme", rebuilt.TopSources[0].URL)
	assert.Equal(t, 2, rebuilt.TopSources[0].Frequency)
	assert.ElementsMatch(t, []string{"openai", "anthropic"}, rebuilt.TopSources[0].Providers)

	assert.Equal(t, 2, rebuilt.BrandCitations.TotalCitations, "brand cited by both providers")
	require.Contains(t, rebuilt.CompetitorCitations, "Rival")
	assert.Equal(t, 1, rebuilt.CompetitorCitations["Rival"].TotalCitations)

	require.Contains(t, rebuilt.ProviderBreakdown, "openai")
	require.Contains(t, rebuilt.ProviderBreakdown, "anthropic")
	assert.Len(t, rebuilt.ProviderBreakdown["openai"], 2)
	assert.Len(t, rebuilt.ProviderBreakdown["anthropic"], 1)
}

func TestReconstructDeterministic(t *testing.T) {
	citationRepo := &fakeCitationRepo{}
	sourceRepo := &fakeSourceRepo{}
	store := NewCitationStore(citationRepo, sourceRepo)
	ctx := context.Background()

	cites := []models.Citation{
		{URL: "https://g2.com/acme", Title: "Acme reviews", Position: 1, MentionedCompanies: []string{"Acme"}},
	}
	require.NoError(t, store.SaveCitations(ctx, "an-2", "gemini", nil, cites))
	require.NoError(t, store.SaveAggregatedSources(ctx, "an-2", &models.CitationAnalysis{
		TotalSources: 1,
		TopSources: []models.SourceFrequency{
			{URL: "https://g2.com/acme", Domain: "g2.com", Frequency: 1, Providers: []string{"gemini"}},
		},
	}))

	first, err := store.ReconstructCitationAnalysis(ctx, "an-2", "Acme", nil)
	require.NoError(t, err)
	second, err := store.ReconstructCitationAnalysis(ctx, "an-2", "Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
