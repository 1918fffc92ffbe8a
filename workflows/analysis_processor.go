// workflows/analysis_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
	"github.com/BrandLens-AI/brandlens-workflows/services"
)

// AnalysisProcessEvent is the payload of the analysis.process event.
type AnalysisProcessEvent struct {
	AnalysisID  string   `json:"analysis_id,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
	BrandName   string   `json:"brand_name"`
	Website     string   `json:"website,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
}

type AnalysisProcessor struct {
	analysisService services.AnalysisService
	client          inngestgo.Client
	cfg             *config.Config
}

func NewAnalysisProcessor(analysisService services.AnalysisService, cfg *config.Config) *AnalysisProcessor {
	return &AnalysisProcessor{
		analysisService: analysisService,
		cfg:             cfg,
	}
}

func (p *AnalysisProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// ProcessAnalysis runs the full brand visibility pipeline for one analysis
// event.
func (p *AnalysisProcessor) ProcessAnalysis() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-analysis",
			Name:    "Process Brand Visibility Analysis",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger("analysis.process", nil),
		func(ctx context.Context, input inngestgo.Input[AnalysisProcessEvent]) (any, error) {
			event := input.Event.Data
			fmt.Printf("[ProcessAnalysis] Starting brand visibility pipeline for brand: %s\n", event.BrandName)

			// Step 1: Run the full analysis pipeline
			result, err := step.Run(ctx, "perform-analysis", func(ctx context.Context) (*models.AnalysisResult, error) {
				fmt.Printf("[ProcessAnalysis] Step 1: Running provider fan-out and aggregation\n")
				req := &services.AnalysisRequest{
					AnalysisID:  event.AnalysisID,
					CompanyID:   event.CompanyID,
					BrandName:   event.BrandName,
					Website:     event.Website,
					Industry:    event.Industry,
					Competitors: event.Competitors,
				}
				result, err := p.analysisService.PerformAnalysis(ctx, req, p.logProgress)
				if err != nil {
					return nil, fmt.Errorf("failed to perform analysis: %w", err)
				}
				fmt.Printf("[ProcessAnalysis] Analysis %s produced %d responses across %d sources\n",
					result.AnalysisID, len(result.Responses), result.CitationAnalysis.TotalSources)
				return result, nil
			})
			if err != nil {
				return nil, fmt.Errorf("step 1 failed: %w", err)
			}

			// Step 2: Summarize for the event result
			summary, err := step.Run(ctx, "summarize-analysis", func(ctx context.Context) (interface{}, error) {
				fmt.Printf("[ProcessAnalysis] Step 2: Summarizing analysis %s\n", result.AnalysisID)
				return summarizeResult(result), nil
			})
			if err != nil {
				return nil, fmt.Errorf("step 2 failed: %w", err)
			}

			fmt.Printf("[ProcessAnalysis] ✅ COMPLETED: Brand visibility pipeline for %s\n", event.BrandName)
			return map[string]interface{}{
				"analysis_id":  result.AnalysisID,
				"brand_name":   result.BrandName,
				"status":       "completed",
				"summary":      summary,
				"completed_at": time.Now().UTC(),
			}, nil
		},
	)
	if err != nil {
		panic(fmt.Errorf("failed to create ProcessAnalysis function: %w", err))
	}
	return fn
}

func (p *AnalysisProcessor) logProgress(progress models.AnalysisProgress) {
	if progress.Total > 0 {
		fmt.Printf("[ProcessAnalysis] 📈 %s: %s (%d/%d)\n", progress.Stage, progress.Message, progress.Completed, progress.Total)
		return
	}
	fmt.Printf("[ProcessAnalysis] 📈 %s: %s\n", progress.Stage, progress.Message)
}

func summarizeResult(result *models.AnalysisResult) map[string]interface{} {
	summary := map[string]interface{}{
		"visibility_score": result.VisibilityScore,
		"competitors":      result.Competitors,
		"responses":        len(result.Responses),
		"total_cost":       result.TotalCost,
		"errors":           len(result.Errors),
	}
	if result.CitationAnalysis != nil {
		summary["total_sources"] = result.CitationAnalysis.TotalSources
		summary["brand_citations"] = result.CitationAnalysis.BrandCitations.TotalCitations
	}
	if result.CitationMetrics != nil {
		summary["brand_share_of_voice"] = result.CitationMetrics.ShareOfVoice.Brand
		if result.CitationMetrics.CitationGap != nil {
			summary["leading_competitor"] = result.CitationMetrics.CitationGap.LeadingCompetitor
			summary["citation_gap"] = result.CitationMetrics.CitationGap.Gap
		}
	}
	return summary
}
