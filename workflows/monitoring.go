// workflows/monitoring.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
)

// WeeklyBacklogAnalyzer reports how stale the monitored companies' analyses
// are, bucketed by staleness horizon.
func (p *ScheduledProcessor) WeeklyBacklogAnalyzer() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "weekly-backlog-analyzer",
			Name: "Analyze Analysis Backlog",
		},
		inngestgo.CronTrigger("0 0 * * 0"), // Every Sunday at midnight
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now()

			horizons := map[string]time.Duration{
				"1d":  24 * time.Hour,
				"7d":  7 * 24 * time.Hour,
				"30d": 30 * 24 * time.Hour,
			}

			distribution, err := step.Run(ctx, "get-staleness-distribution", func(ctx context.Context) (map[string]int, error) {
				counts := make(map[string]int, len(horizons))
				for label, horizon := range horizons {
					companies, err := p.companyRepo.GetDueForAnalysis(ctx, now.Add(-horizon))
					if err != nil {
						return nil, fmt.Errorf("failed to count companies stale beyond %s: %w", label, err)
					}
					counts[label] = len(companies)
				}
				return counts, nil
			})
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"checked_at":     now.Format(time.RFC3339),
				"stale_counts":   distribution,
				"recommendation": backlogRecommendation(distribution),
			}, nil
		},
	)

	if err != nil {
		fmt.Printf("Failed to create weekly backlog analyzer function: %v\n", err)
	}

	return fn
}

func backlogRecommendation(distribution map[string]int) string {
	if distribution["30d"] > 0 {
		return fmt.Sprintf("%d companies have not been analyzed in 30 days; check the daily processor", distribution["30d"])
	}
	if distribution["7d"] > 0 {
		return fmt.Sprintf("%d companies are more than a week stale", distribution["7d"])
	}
	return "Backlog is healthy"
}
