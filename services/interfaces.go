// services/interfaces.go
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/jmoiron/sqlx"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// RepositoryManager manages all database repositories
type RepositoryManager struct {
	db                 *sqlx.DB
	CompanyRepo        CompanyRepository
	AnalysisRepo       AnalysisRepository
	CitationRepo       CitationRepository
	CitationSourceRepo CitationSourceRepository
}

// NewRepositoryManager creates a new repository manager with all repositories
func NewRepositoryManager(db *sqlx.DB) *RepositoryManager {
	return &RepositoryManager{
		db:                 db,
		CompanyRepo:        NewCompanyRepo(db),
		AnalysisRepo:       NewAnalysisRepo(db),
		CitationRepo:       NewCitationRepo(db),
		CitationSourceRepo: NewCitationSourceRepo(db),
	}
}

// BeginTx starts a database transaction
func (rm *RepositoryManager) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return rm.db.BeginTxx(ctx, nil)
}

// CompanyRepository provides access to monitored companies.
type CompanyRepository interface {
	Create(ctx context.Context, company *models.CompanyProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CompanyProfile, error)
	GetDueForAnalysis(ctx context.Context, since time.Time) ([]*models.CompanyProfile, error)
}

// AnalysisRepository persists the primary analysis record. The citation
// tables hang off it by analysis_id but are written independently.
type AnalysisRepository interface {
	Create(ctx context.Context, record *AnalysisRecord) error
	GetByID(ctx context.Context, analysisID string) (*AnalysisRecord, error)
	UpdateCitationAnalysis(ctx context.Context, analysisID string, analysis *models.CitationAnalysis) error
}

// CitationRepository stores one row per raw citation occurrence.
type CitationRepository interface {
	Create(ctx context.Context, row *models.CitationRow) error
	GetByAnalysis(ctx context.Context, analysisID string) ([]*models.CitationRow, error)
}

// CitationSourceRepository stores the deduplicated source aggregate rows.
type CitationSourceRepository interface {
	Create(ctx context.Context, row *models.CitationSourceRow) error
	GetByAnalysis(ctx context.Context, analysisID string) ([]*models.CitationSourceRow, error)
}

// AnalysisRecord is the persisted form of one analysis run's summary. The
// citation_analysis column optionally carries the richer in-memory aggregate;
// when it is NULL the aggregate is reconstructed from the citation tables.
type AnalysisRecord struct {
	AnalysisID       string     `db:"analysis_id"`
	CompanyID        uuid.UUID  `db:"company_id"`
	BrandName        string     `db:"brand_name"`
	Competitors      string     `db:"competitors"` // JSON-encoded string slice
	VisibilityScore  float64    `db:"visibility_score"`
	TotalCost        float64    `db:"total_cost"`
	CitationAnalysis *string    `db:"citation_analysis"` // JSON CitationAnalysis, nullable
	CreatedAt        time.Time  `db:"created_at"`
	CompletedAt      *time.Time `db:"completed_at"`
}

// ProviderResponse is one provider's answer to one prompt. Raw carries the
// provider-shaped citation payload exactly as the integration produced it;
// the extractor owns decoding it.
type ProviderResponse struct {
	Text         string
	Raw          json.RawMessage
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// AIProvider interface for different AI models
type AIProvider interface {
	// GetProviderName returns the canonical lowercase provider name. Callers
	// rely on the casing: provider names key the aggregate maps and the
	// citation rows.
	GetProviderName() string
	RunPrompt(ctx context.Context, prompt string) (*ProviderResponse, error)
}

type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int, webSearch bool) float64
}

// CompetitorService identifies a brand's competitors from an AI call.
type CompetitorService interface {
	IdentifyCompetitors(ctx context.Context, brandName, industry string, known []string) ([]string, error)
}

// CitationStore is the persistence adapter between the in-memory citation
// model and the flat citation tables.
type CitationStore interface {
	SaveCitations(ctx context.Context, analysisID, provider string, promptID *string, cites []models.Citation) error
	SaveAggregatedSources(ctx context.Context, analysisID string, analysis *models.CitationAnalysis) error
	// ReconstructCitationAnalysis rebuilds the aggregate from persisted rows.
	// Returns (nil, nil) when no aggregated source rows exist for the
	// analysis. Best-effort: topSources come from the citation_sources rows
	// and the buckets from the raw citations rows, which can in principle
	// disagree if one table was modified independently.
	ReconstructCitationAnalysis(ctx context.Context, analysisID, brandName string, competitors []string) (*models.CitationAnalysis, error)
}

// AnalysisRequest describes one analysis run to perform.
type AnalysisRequest struct {
	AnalysisID  string   `json:"analysis_id,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
	BrandName   string   `json:"brand_name"`
	Website     string   `json:"website,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
}

// ProgressFunc receives pipeline progress events. May be nil.
type ProgressFunc func(models.AnalysisProgress)

// AnalysisService drives the full analysis pipeline.
type AnalysisService interface {
	PerformAnalysis(ctx context.Context, req *AnalysisRequest, progress ProgressFunc) (*models.AnalysisResult, error)
	GetCitationAnalysis(ctx context.Context, analysisID string) (*models.CitationAnalysis, error)
}

// Structured output types for AI extraction
type CompetitorListResponse struct {
	Competitors []string `json:"competitors" jsonschema_description:"List of competitor company names"`
}

// GenerateSchema generates a JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	// Convert to the format expected by OpenAI
	result := map[string]interface{}{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}

	if schema.AdditionalProperties != nil {
		result["additionalProperties"] = false
	}

	return result
}
