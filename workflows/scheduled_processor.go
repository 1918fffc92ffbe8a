// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/BrandLens-AI/brandlens-workflows/internal/models"
	"github.com/BrandLens-AI/brandlens-workflows/services"
)

type ScheduledProcessor struct {
	companyRepo services.CompanyRepository
	client      inngestgo.Client
}

func NewScheduledProcessor(companyRepo services.CompanyRepository) *ScheduledProcessor {
	return &ScheduledProcessor{
		companyRepo: companyRepo,
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// DailyAnalysisProcessor triggers an analysis for every monitored company
// that has not been analyzed in the last 24 hours.
func (p *ScheduledProcessor) DailyAnalysisProcessor() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "daily-analysis-processor",
			Name: "Daily Brand Analysis Processor",
		},
		inngestgo.CronTrigger("0 2 * * *"), // Every day at 2 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now()
			cutoff := now.Add(-24 * time.Hour)

			// Step 1: Find companies due for a fresh analysis
			companies, err := step.Run(ctx, "get-due-companies", func(ctx context.Context) ([]*models.CompanyProfile, error) {
				return p.companyRepo.GetDueForAnalysis(ctx, cutoff)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get due companies: %w", err)
			}

			if len(companies) == 0 {
				return map[string]interface{}{
					"execution_date":  now.Format("2006-01-02"),
					"companies_found": 0,
					"message":         "No companies due for analysis",
				}, nil
			}

			// Step 2: Trigger an idempotent per-company analysis event. A failed
			// send is logged and skipped so one bad company never blocks the rest.
			triggered := 0
			for _, company := range companies {
				stepName := fmt.Sprintf("trigger-analysis-%s", company.ID.String())

				_, err := step.Run(ctx, stepName, func(ctx context.Context) (interface{}, error) {
					evt := inngestgo.Event{
						Name: "analysis.process",
						Data: map[string]interface{}{
							"company_id":  company.ID.String(),
							"brand_name":  company.Name,
							"website":     company.Website,
							"industry":    company.Industry,
							"competitors": company.Competitors,
						},
					}
					return p.client.Send(ctx, evt)
				})
				if err != nil {
					fmt.Printf("Warning: Failed to send event for company %s: %v\n", company.ID.String(), err)
					continue
				}
				triggered++
			}

			return map[string]interface{}{
				"execution_date":  now.Format("2006-01-02"),
				"companies_found": len(companies),
				"triggered":       triggered,
				"message":         fmt.Sprintf("Triggered %d analysis pipelines", triggered),
			}, nil
		},
	)

	if err != nil {
		fmt.Printf("Failed to create daily analysis processor function: %v\n", err)
	}

	return fn
}
