// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Citation represents a single source cited by one model response.
// Created during extraction, enriched once with mentioned companies, then
// treated as immutable.
type Citation struct {
	URL                string   `json:"url"`
	Title              string   `json:"title,omitempty"`
	Snippet            string   `json:"snippet,omitempty"`
	Source             string   `json:"source,omitempty"` // domain or provider label
	Date               string   `json:"date,omitempty"`
	Position           int      `json:"position,omitempty"` // rank within the response's citation list, 1-based, 0 = unknown
	MentionedCompanies []string `json:"mentioned_companies,omitempty"`
	Synthetic          bool     `json:"synthetic,omitempty"` // true for fallback sample data
}

// AIResponse contains one provider's answer to one prompt plus the
// citations extracted from it.
type AIResponse struct {
	Provider       string     `json:"provider"`
	Prompt         string     `json:"prompt"`
	Response       string     `json:"response"`
	BrandMentioned bool       `json:"brand_mentioned"`
	Competitors    []string   `json:"competitors,omitempty"`
	Citations      []Citation `json:"citations,omitempty"`
	InputTokens    int        `json:"input_tokens"`
	OutputTokens   int        `json:"output_tokens"`
	Cost           float64    `json:"cost"`
	Error          string     `json:"error,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// SourceFrequency aggregates all citations of one URL across responses.
// Providers and MentionedCompanies are unions and only ever grow during a
// fold.
type SourceFrequency struct {
	URL                string   `json:"url"`
	Domain             string   `json:"domain"`
	Title              string   `json:"title,omitempty"`
	Frequency          int      `json:"frequency"`
	Providers          []string `json:"providers"`
	MentionedCompanies []string `json:"mentioned_companies,omitempty"`
}

// DomainCount is one entry of a top-domains ranking.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// CitationsByCompany collects the citations attributed to one tracked
// company (the brand or a single competitor).
type CitationsByCompany struct {
	TotalCitations int           `json:"total_citations"`
	Sources        []Citation    `json:"sources"`
	TopDomains     []DomainCount `json:"top_domains"`
}

// CitationAnalysis is the full citation aggregate for one analysis run.
type CitationAnalysis struct {
	TotalSources        int                           `json:"total_sources"`
	TopSources          []SourceFrequency             `json:"top_sources"`
	BrandCitations      CitationsByCompany            `json:"brand_citations"`
	CompetitorCitations map[string]CitationsByCompany `json:"competitor_citations"`
	ProviderBreakdown   map[string][]SourceFrequency  `json:"provider_breakdown"`
}

// EntityCitationMetrics is the per-entity slice of the competitive metrics.
type EntityCitationMetrics struct {
	Name            string        `json:"name"`
	CitationCount   int           `json:"citation_count"`
	Percentage      float64       `json:"percentage"` // of all citations, tracked or not
	UniqueDomains   int           `json:"unique_domains"`
	AveragePosition float64       `json:"average_position"` // over citations that carry a position
	TopDomains      []DomainCount `json:"top_domains"`
}

// ShareOfVoice percentages are computed over tracked-entity citations only,
// not over the total citation count.
type ShareOfVoice struct {
	Brand       float64            `json:"brand"`
	Competitors map[string]float64 `json:"competitors"`
}

// CitationGap reports the brand's deficit or surplus against the single
// most-cited competitor.
type CitationGap struct {
	LeadingCompetitor string  `json:"leading_competitor"`
	Gap               int     `json:"gap"` // competitor count - brand count
	GapPercentage     float64 `json:"gap_percentage"`
}

// BrandVsCompetitorCitationMetrics is the derived, read-only competitive
// view over one analysis run's citations.
type BrandVsCompetitorCitationMetrics struct {
	TotalCitations int                              `json:"total_citations"`
	TotalMentions  int                              `json:"total_mentions"` // tracked-entity citations
	Brand          EntityCitationMetrics            `json:"brand"`
	Competitors    map[string]EntityCitationMetrics `json:"competitors"`
	ShareOfVoice   ShareOfVoice                     `json:"share_of_voice"`
	CitationGap    *CitationGap                     `json:"citation_gap,omitempty"`
}

// CompanyProfile describes the company under analysis.
type CompanyProfile struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Website     string    `json:"website,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Competitors []string  `json:"competitors,omitempty"`
}

// AnalysisProgress is emitted by the orchestrator as the pipeline advances.
type AnalysisProgress struct {
	Stage     string    `json:"stage"` // "competitors", "prompts", "providers", "scoring", "citations", "persist", "complete"
	Message   string    `json:"message"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisResult is the orchestrator's final output for one analysis run.
type AnalysisResult struct {
	AnalysisID       string                            `json:"analysis_id"`
	BrandName        string                            `json:"brand_name"`
	Competitors      []string                          `json:"competitors"`
	Responses        []AIResponse                      `json:"responses"`
	VisibilityScore  float64                           `json:"visibility_score"` // % of responses mentioning the brand
	CitationAnalysis *CitationAnalysis                 `json:"citation_analysis,omitempty"`
	CitationMetrics  *BrandVsCompetitorCitationMetrics `json:"citation_metrics,omitempty"`
	TotalCost        float64                           `json:"total_cost"`
	Errors           []string                          `json:"errors,omitempty"`
	StartedAt        time.Time                         `json:"started_at"`
	CompletedAt      time.Time                         `json:"completed_at"`
}

// CitationRow is the flat persisted form of one Citation, one row per raw
// citation occurrence. Duplicate URLs across saves are kept on purpose.
type CitationRow struct {
	CitationID         uuid.UUID `db:"citation_id"`
	AnalysisID         string    `db:"analysis_id"`
	Provider           string    `db:"provider"`
	PromptID           *string   `db:"prompt_id"`
	URL                string    `db:"url"`
	Title              string    `db:"title"`
	Snippet            string    `db:"snippet"`
	Source             string    `db:"source"`
	Date               string    `db:"cited_date"`
	Position           int       `db:"position"`
	MentionedCompanies string    `db:"mentioned_companies"` // JSON-encoded string slice
	Synthetic          bool      `db:"synthetic"`
	CreatedAt          time.Time `db:"created_at"`
}

// CitationSourceRow is the persisted form of one SourceFrequency entry.
type CitationSourceRow struct {
	CitationSourceID   uuid.UUID `db:"citation_source_id"`
	AnalysisID         string    `db:"analysis_id"`
	URL                string    `db:"url"`
	Domain             string    `db:"domain"`
	Title              string    `db:"title"`
	Frequency          int       `db:"frequency"`
	Providers          string    `db:"providers"`           // JSON-encoded string slice
	MentionedCompanies string    `db:"mentioned_companies"` // JSON-encoded string slice
	CreatedAt          time.Time `db:"created_at"`
}
