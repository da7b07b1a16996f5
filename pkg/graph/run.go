package graph

import (
	"context"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
)

// ProcessAll runs a batch extraction over the given works. An empty works
// slice means every work the source knows about. Work failures are recorded
// in the summary and never abort the run; only a broken segment source
// stops work discovery.
func (g *GraphClient) ProcessAll(ctx context.Context, works []string, startPage string, limit int) (*common.RunSummary, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	if len(works) == 0 {
		works, err = g.source.ListWorks(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to discover works: %v", common.ErrConfiguration, err)
		}
	}

	summary := &common.RunSummary{RunID: runID, WorksFound: len(works)}
	if len(works) == 0 {
		logger.Warn("[Graph][Run] No works to process", "run_id", runID)
		return summary, nil
	}

	logger.Info("[Graph][Run] Starting batch extraction",
		"run_id", runID, "works", len(works), "start_page", startPage, "limit", limit)

	mu := sync.Mutex{}
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelWorks)

	for _, work := range works {
		w := work
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
			}
			stats := g.ProcessWork(gCtx, w, startPage, limit)
			mu.Lock()
			summary.Add(stats)
			mu.Unlock()
			return nil
		})
	}
	eg.Wait()

	logger.Info("[Graph][Run] Batch extraction completed",
		"run_id", runID,
		"works", summary.WorksProcessed,
		"pages", summary.PagesSeen,
		"saved", summary.Saved,
		"failed", summary.Failed,
		"fallbacks", summary.Fallbacks,
		"repairs", summary.Repairs)
	return summary, nil
}
