// services/repositories.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// companyRepo persists monitored companies.
type companyRepo struct {
	db *sqlx.DB
}

func NewCompanyRepo(db *sqlx.DB) CompanyRepository {
	return &companyRepo{db: db}
}

type companyRow struct {
	CompanyID   uuid.UUID  `db:"company_id"`
	Name        string     `db:"name"`
	Website     string     `db:"website"`
	Industry    string     `db:"industry"`
	Competitors string     `db:"competitors"` // JSON-encoded string slice
	CreatedAt   time.Time  `db:"created_at"`
	LastRunAt   *time.Time `db:"last_run_at"`
}

func (r *companyRepo) Create(ctx context.Context, company *models.CompanyProfile) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	competitors, err := json.Marshal(company.Competitors)
	if err != nil {
		return fmt.Errorf("failed to encode competitors: %w", err)
	}
	row := companyRow{
		CompanyID:   company.ID,
		Name:        company.Name,
		Website:     company.Website,
		Industry:    company.Industry,
		Competitors: string(competitors),
		CreatedAt:   time.Now(),
	}
	query := `
		INSERT INTO companies (company_id, name, website, industry, competitors, created_at)
		VALUES (:company_id, :name, :website, :industry, :competitors, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CompanyProfile, error) {
	var row companyRow
	query := `SELECT company_id, name, website, industry, competitors, created_at, last_run_at
		FROM companies WHERE company_id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return row.toProfile()
}

func (r *companyRepo) GetDueForAnalysis(ctx context.Context, since time.Time) ([]*models.CompanyProfile, error) {
	var rows []companyRow
	query := `SELECT company_id, name, website, industry, competitors, created_at, last_run_at
		FROM companies
		WHERE last_run_at IS NULL OR last_run_at < $1
		ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to list due companies: %w", err)
	}
	profiles := make([]*models.CompanyProfile, 0, len(rows))
	for _, row := range rows {
		profile, err := row.toProfile()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (row companyRow) toProfile() (*models.CompanyProfile, error) {
	profile := &models.CompanyProfile{
		ID:       row.CompanyID,
		Name:     row.Name,
		Website:  row.Website,
		Industry: row.Industry,
	}
	if row.Competitors != "" {
		if err := json.Unmarshal([]byte(row.Competitors), &profile.Competitors); err != nil {
			return nil, fmt.Errorf("failed to decode competitors: %w", err)
		}
	}
	return profile, nil
}

// analysisRepo persists the analysis summary records.
type analysisRepo struct {
	db *sqlx.DB
}

func NewAnalysisRepo(db *sqlx.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Create(ctx context.Context, record *AnalysisRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO analyses (analysis_id, company_id, brand_name, competitors, visibility_score, total_cost, citation_analysis, created_at, completed_at)
		VALUES (:analysis_id, :company_id, :brand_name, :competitors, :visibility_score, :total_cost, :citation_analysis, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (r *analysisRepo) GetByID(ctx context.Context, analysisID string) (*AnalysisRecord, error) {
	var record AnalysisRecord
	query := `SELECT analysis_id, company_id, brand_name, competitors, visibility_score, total_cost, citation_analysis, created_at, completed_at
		FROM analyses WHERE analysis_id = $1`
	if err := r.db.GetContext(ctx, &record, query, analysisID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &record, nil
}

func (r *analysisRepo) UpdateCitationAnalysis(ctx context.Context, analysisID string, analysis *models.CitationAnalysis) error {
	encoded, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode citation analysis: %w", err)
	}
	query := `UPDATE analyses SET citation_analysis = $1 WHERE analysis_id = $2`
	if _, err := r.db.ExecContext(ctx, query, string(encoded), analysisID); err != nil {
		return fmt.Errorf("failed to update citation analysis: %w", err)
	}
	return nil
}

// citationRepo persists raw citation rows. Append-only: duplicate URLs
// across saves are expected and kept.
type citationRepo struct {
	db *sqlx.DB
}

func NewCitationRepo(db *sqlx.DB) CitationRepository {
	return &citationRepo{db: db}
}

func (r *citationRepo) Create(ctx context.Context, row *models.CitationRow) error {
	if row.CitationID == uuid.Nil {
		row.CitationID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO citations (citation_id, analysis_id, provider, prompt_id, url, title, snippet, source, cited_date, position, mentioned_companies, synthetic, created_at)
		VALUES (:citation_id, :analysis_id, :provider, :prompt_id, :url, :title, :snippet, :source, :cited_date, :position, :mentioned_companies, :synthetic, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert citation: %w", err)
	}
	return nil
}

func (r *citationRepo) GetByAnalysis(ctx context.Context, analysisID string) ([]*models.CitationRow, error) {
	var rows []*models.CitationRow
	query := `SELECT citation_id, analysis_id, provider, prompt_id, url, title, snippet, source, cited_date, position, mentioned_companies, synthetic, created_at
		FROM citations WHERE analysis_id = $1 ORDER BY created_at ASC, position ASC`
	if err := r.db.SelectContext(ctx, &rows, query, analysisID); err != nil {
		return nil, fmt.Errorf("failed to list citations: %w", err)
	}
	return rows, nil
}

// citationSourceRepo persists the deduplicated source aggregate rows.
type citationSourceRepo struct {
	db *sqlx.DB
}

func NewCitationSourceRepo(db *sqlx.DB) CitationSourceRepository {
	return &citationSourceRepo{db: db}
}

func (r *citationSourceRepo) Create(ctx context.Context, row *models.CitationSourceRow) error {
	if row.CitationSourceID == uuid.Nil {
		row.CitationSourceID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO citation_sources (citation_source_id, analysis_id, url, domain, title, frequency, providers, mentioned_companies, created_at)
		VALUES (:citation_source_id, :analysis_id, :url, :domain, :title, :frequency, :providers, :mentioned_companies, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert citation source: %w", err)
	}
	return nil
}

func (r *citationSourceRepo) GetByAnalysis(ctx context.Context, analysisID string) ([]*models.CitationSourceRow, error) {
	var rows []*models.CitationSourceRow
	query := `SELECT citation_source_id, analysis_id, url, domain, title, frequency, providers, mentioned_companies, created_at
		FROM citation_sources WHERE analysis_id = $1 ORDER BY frequency DESC, created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, analysisID); err != nil {
		return nil, fmt.Errorf("failed to list citation sources: %w", err)
	}
	return rows, nil
}
