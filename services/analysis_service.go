// services/analysis_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrandLens-AI/brandlens-workflows/internal/citations"
	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
)

// analysisService drives one analysis run end to end: competitor discovery,
// prompt generation, the provider fan-out, citation aggregation, competitive
// metrics, and best-effort persistence.
type analysisService struct {
	cfg               *config.Config
	providers         []AIProvider
	competitorService CompetitorService
	citationStore     CitationStore
	analysisRepo      AnalysisRepository
}

func NewAnalysisService(
	cfg *config.Config,
	providers []AIProvider,
	competitorService CompetitorService,
	citationStore CitationStore,
	analysisRepo AnalysisRepository,
) AnalysisService {
	return &analysisService{
		cfg:               cfg,
		providers:         providers,
		competitorService: competitorService,
		citationStore:     citationStore,
		analysisRepo:      analysisRepo,
	}
}

// promptJob is one provider-prompt pair of the fan-out.
type promptJob struct {
	index    int
	provider AIProvider
	prompt   string
}

func (s *analysisService) PerformAnalysis(ctx context.Context, req *AnalysisRequest, progress ProgressFunc) (*models.AnalysisResult, error) {
	if req == nil || req.BrandName == "" {
		return nil, fmt.Errorf("brand name is required")
	}

	result := &models.AnalysisResult{
		AnalysisID: req.AnalysisID,
		BrandName:  req.BrandName,
		StartedAt:  time.Now(),
	}
	if result.AnalysisID == "" {
		result.AnalysisID = uuid.New().String()
	}

	fmt.Printf("[PerformAnalysis] 🚀 Starting analysis %s for brand: %s\n", result.AnalysisID, req.BrandName)

	// Step 1: Competitor discovery
	s.emit(progress, "competitors", "Identifying competitors", 0, 0)
	competitors, err := s.competitorService.IdentifyCompetitors(ctx, req.BrandName, req.Industry, req.Competitors)
	if err != nil {
		// A failed discovery degrades to whatever the caller already knew.
		fmt.Printf("[PerformAnalysis] ⚠️ Competitor identification failed: %v\n", err)
		result.Errors = append(result.Errors, fmt.Sprintf("competitor identification: %v", err))
		competitors = req.Competitors
	}
	result.Competitors = competitors
	fmt.Printf("[PerformAnalysis] Tracking %d competitors for %s\n", len(competitors), req.BrandName)

	// Step 2: Prompt generation
	prompts := s.buildPrompts(req.BrandName, req.Industry, competitors)
	s.emit(progress, "prompts", fmt.Sprintf("Generated %d prompts", len(prompts)), 0, 0)

	// Step 3: Provider fan-out
	jobs := make([]promptJob, 0, len(prompts)*len(s.providers))
	for _, provider := range s.providers {
		for _, prompt := range prompts {
			jobs = append(jobs, promptJob{index: len(jobs), provider: provider, prompt: prompt})
		}
	}
	result.Responses = s.runJobs(ctx, jobs, req.BrandName, competitors, progress)

	// Step 4: Scoring
	s.emit(progress, "scoring", "Scoring visibility", len(jobs), len(jobs))
	mentioned := 0
	answered := 0
	for _, resp := range result.Responses {
		result.TotalCost += resp.Cost
		if resp.Error != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", resp.Provider, resp.Error))
			continue
		}
		answered++
		if resp.BrandMentioned {
			mentioned++
		}
	}
	if answered > 0 {
		result.VisibilityScore = float64(mentioned) / float64(answered) * 100
	}

	// Step 5: Citation aggregation and competitive metrics
	s.emit(progress, "citations", "Aggregating citations", 0, 0)
	result.CitationAnalysis = citations.AnalyzeCitations(result.Responses, req.BrandName, competitors)
	result.CitationMetrics = citations.CalculateBrandVsCompetitorMetrics(result.Responses, req.BrandName, competitors)

	// Step 6: Persistence. Best-effort: a storage failure is reported in the
	// result's error list, never as a failed run.
	s.emit(progress, "persist", "Persisting results", 0, 0)
	s.persist(ctx, req, result)

	result.CompletedAt = time.Now()
	s.emit(progress, "complete", "Analysis complete", len(jobs), len(jobs))
	fmt.Printf("[PerformAnalysis] ✅ Analysis %s complete: score=%.1f sources=%d cost=$%.4f errors=%d\n",
		result.AnalysisID, result.VisibilityScore, result.CitationAnalysis.TotalSources, result.TotalCost, len(result.Errors))
	return result, nil
}

// runJobs fans jobs out in fixed-size batches. Each batch's calls run
// concurrently and are gathered before the next batch starts; results land at
// their job's index so output order matches input order regardless of call
// completion order.
func (s *analysisService) runJobs(ctx context.Context, jobs []promptJob, brandName string, competitors []string, progress ProgressFunc) []models.AIResponse {
	batchSize := s.cfg.Analysis.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	responses := make([]models.AIResponse, len(jobs))
	completed := 0
	for start := 0; start < len(jobs); start += batchSize {
		end := start + batchSize
		if end > len(jobs) {
			end = len(jobs)
		}

		var wg sync.WaitGroup
		for _, job := range jobs[start:end] {
			wg.Add(1)
			go func(job promptJob) {
				defer wg.Done()
				responses[job.index] = s.runJob(ctx, job, brandName, competitors)
			}(job)
		}
		wg.Wait()

		completed = end
		s.emit(progress, "providers", fmt.Sprintf("Completed %d/%d provider calls", completed, len(jobs)), completed, len(jobs))
	}
	return responses
}

func (s *analysisService) runJob(ctx context.Context, job promptJob, brandName string, competitors []string) models.AIResponse {
	providerName := job.provider.GetProviderName()
	response := models.AIResponse{
		Provider:  providerName,
		Prompt:    job.prompt,
		Timestamp: time.Now(),
	}

	resp, err := job.provider.RunPrompt(ctx, job.prompt)
	if err != nil {
		fmt.Printf("[runJob] ❌ %s call failed: %v\n", providerName, err)
		response.Error = err.Error()
		return response
	}

	response.Response = resp.Text
	response.InputTokens = resp.InputTokens
	response.OutputTokens = resp.OutputTokens
	response.Cost = resp.Cost

	mentions := citations.DetectMentions(resp.Text, brandName, competitors)
	for _, name := range mentions {
		if name == brandName {
			response.BrandMentioned = true
		} else {
			response.Competitors = append(response.Competitors, name)
		}
	}

	raw := resp.Raw
	if len(raw) == 0 {
		// No citation payload at all; hand the text to the legacy harvest.
		encoded, err := json.Marshal(map[string]string{"response": resp.Text})
		if err == nil {
			raw = encoded
		}
	}
	response.Citations = citations.Extract(providerName, raw, brandName, competitors)
	return response
}

// buildPrompts generates the visibility probe prompts for one run, capped at
// the configured prompt count.
func (s *analysisService) buildPrompts(brandName, industry string, competitors []string) []string {
	category := industry
	if category == "" {
		category = "this market"
	}

	prompts := []string{
		fmt.Sprintf("What are the best solutions in %s? Please cite your sources.", category),
		fmt.Sprintf("What do reviewers and analysts say about %s? Please cite your sources.", brandName),
		fmt.Sprintf("How does %s compare to its main competitors in %s? Please cite your sources.", brandName, category),
	}
	if len(competitors) > 0 {
		prompts = append(prompts, fmt.Sprintf("Compare %s and %s. Which would you recommend, and why? Please cite your sources.", brandName, competitors[0]))
	}
	prompts = append(prompts, fmt.Sprintf("What are the top alternatives to %s? Please cite your sources.", brandName))

	count := s.cfg.Analysis.PromptCount
	if count > 0 && count < len(prompts) {
		prompts = prompts[:count]
	}
	return prompts
}

// persist writes the analysis record, the raw citation rows, and the
// aggregated source rows. Failures degrade to result errors.
func (s *analysisService) persist(ctx context.Context, req *AnalysisRequest, result *models.AnalysisResult) {
	if s.analysisRepo != nil {
		record := &AnalysisRecord{
			AnalysisID:      result.AnalysisID,
			BrandName:       result.BrandName,
			VisibilityScore: result.VisibilityScore,
			TotalCost:       result.TotalCost,
			CreatedAt:       result.StartedAt,
		}
		if req.CompanyID != "" {
			if companyID, err := uuid.Parse(req.CompanyID); err == nil {
				record.CompanyID = companyID
			}
		}
		if encoded, err := json.Marshal(result.Competitors); err == nil {
			record.Competitors = string(encoded)
		}
		if result.CitationAnalysis != nil {
			if encoded, err := json.Marshal(result.CitationAnalysis); err == nil {
				payload := string(encoded)
				record.CitationAnalysis = &payload
			}
		}
		if err := s.analysisRepo.Create(ctx, record); err != nil {
			fmt.Printf("[persist] ⚠️ Failed to save analysis record: %v\n", err)
			result.Errors = append(result.Errors, fmt.Sprintf("persist analysis: %v", err))
		}
	}

	if s.citationStore == nil {
		return
	}

	for _, resp := range result.Responses {
		if len(resp.Citations) == 0 {
			continue
		}
		if err := s.citationStore.SaveCitations(ctx, result.AnalysisID, resp.Provider, nil, resp.Citations); err != nil {
			fmt.Printf("[persist] ⚠️ Failed to save citations for %s: %v\n", resp.Provider, err)
			result.Errors = append(result.Errors, fmt.Sprintf("persist citations (%s): %v", resp.Provider, err))
		}
	}
	if err := s.citationStore.SaveAggregatedSources(ctx, result.AnalysisID, result.CitationAnalysis); err != nil {
		fmt.Printf("[persist] ⚠️ Failed to save aggregated sources: %v\n", err)
		result.Errors = append(result.Errors, fmt.Sprintf("persist sources: %v", err))
	}
}

// GetCitationAnalysis loads an earlier run's citation aggregate, preferring
// the stored JSON aggregate and falling back to reconstruction from the
// citation tables.
func (s *analysisService) GetCitationAnalysis(ctx context.Context, analysisID string) (*models.CitationAnalysis, error) {
	if s.analysisRepo != nil {
		record, err := s.analysisRepo.GetByID(ctx, analysisID)
		if err != nil {
			return nil, err
		}
		if record != nil && record.CitationAnalysis != nil && *record.CitationAnalysis != "" {
			var analysis models.CitationAnalysis
			if err := json.Unmarshal([]byte(*record.CitationAnalysis), &analysis); err == nil {
				return &analysis, nil
			}
			fmt.Printf("[GetCitationAnalysis] ⚠️ Stored aggregate for %s is unreadable, reconstructing\n", analysisID)
		}
		if record != nil {
			var competitors []string
			if record.Competitors != "" {
				if err := json.Unmarshal([]byte(record.Competitors), &competitors); err != nil {
					fmt.Printf("[GetCitationAnalysis] ⚠️ Bad competitors payload for %s: %v\n", analysisID, err)
				}
			}
			return s.citationStore.ReconstructCitationAnalysis(ctx, analysisID, record.BrandName, competitors)
		}
	}
	return s.citationStore.ReconstructCitationAnalysis(ctx, analysisID, "", nil)
}

func (s *analysisService) emit(progress ProgressFunc, stage, message string, completed, total int) {
	if progress == nil {
		return
	}
	progress(models.AnalysisProgress{
		Stage:     stage,
		Message:   message,
		Completed: completed,
		Total:     total,
		Timestamp: time.Now(),
	})
}
