package graph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dafgraph/backend/pkg/analyze"
	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
	"github.com/dafgraph/backend/pkg/segment"
)

type pageResult struct {
	state common.PageState
	// extracted is set once validation produced a usable step set,
	// regardless of whether persistence then succeeded.
	extracted bool
	fellBack  bool
	repairs   int
}

// ProcessWork extracts the discourse graph for one work. Pages run in
// parallel and fail independently: one page's analysis or persistence error
// is counted, not propagated, so a batch always finishes the work. When
// startPage is non-empty only that page is processed; a limit of zero means
// all segments.
func (g *GraphClient) ProcessWork(ctx context.Context, work string, startPage string, limit int) common.WorkStats {
	stats := common.WorkStats{Work: work}

	segments, err := g.source.FetchSegments(ctx, work, startPage, limit)
	if err != nil {
		stats.Error = fmt.Sprintf("failed to fetch segments: %v", err)
		logger.Error("[Graph][ProcessWork] Segment fetch failed", "work", work, "err", err)
		return stats
	}
	if len(segments) == 0 {
		logger.Warn("[Graph][ProcessWork] No segments found", "work", work, "start_page", startPage)
		return stats
	}

	groups := segment.GroupByPage(segments)
	stats.PagesSeen = len(groups)
	logger.Info("[Graph][ProcessWork] Processing", "work", work, "pages", len(groups), "segments", len(segments))

	mu := sync.Mutex{}
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelPages)

	for _, group := range groups {
		pg := group
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
			}

			res := g.processPage(gCtx, pg)

			mu.Lock()
			defer mu.Unlock()
			if res.extracted {
				stats.Extracted++
			}
			switch res.state {
			case common.PageDone:
				stats.Saved++
			default:
				stats.Failed++
			}
			if res.fellBack {
				stats.Fallbacks++
			}
			stats.Repairs += res.repairs
			return nil
		})
	}
	eg.Wait()

	logger.Info("[Graph][ProcessWork] Work completed",
		"work", work, "saved", stats.Saved, "failed", stats.Failed, "fallbacks", stats.Fallbacks)
	return stats
}

// processPage walks one page through the extraction lifecycle. Every exit
// path lands in done or failed.
func (g *GraphClient) processPage(ctx context.Context, pg segment.PageGroup) pageResult {
	state := common.PagePending
	logger.Debug("[Graph][Page] Starting", "page", pg.PageRef, "state", state)

	state = common.PageAnalyzing
	content := g.normalizer.Combine(pg.Segments)
	if content == "" {
		logger.Warn("[Graph][Page] Empty content, skipping", "page", pg.PageRef)
		return pageResult{state: common.PageFailed}
	}
	logger.Debug("[Graph][Page] Content combined",
		"page", pg.PageRef, "bytes", len(content), "tokens", g.normalizer.CountTokens(content))

	analyzeCtx, cancel := context.WithTimeout(ctx, g.analyzeTimeout)
	outcome, err := g.analyzer.Analyze(analyzeCtx, pg.PageRef, content)
	cancel()
	if err != nil {
		logger.Error("[Graph][Page] Analysis failed", "page", pg.PageRef, "state", state, "err", err)
		return pageResult{state: common.PageFailed}
	}

	state = common.PageValidating
	validated, repairs := analyze.Validate(outcome.Result)
	if len(validated.Steps) == 0 {
		logger.Error("[Graph][Page] Validation left no steps", "page", pg.PageRef, "state", state)
		return pageResult{state: common.PageFailed, fellBack: outcome.FellBack, repairs: repairs}
	}
	outcome.Result = validated
	steps := analyze.Steps(pg.PageRef, validated)

	state = common.PagePersisting
	segmentIDs := make([]string, 0, len(pg.Segments))
	for _, s := range pg.Segments {
		segmentIDs = append(segmentIDs, s.ID)
	}
	if err := g.BuildPage(ctx, pg.PageRef, outcome, steps, segmentIDs); err != nil {
		logger.Error("[Graph][Page] Persistence failed", "page", pg.PageRef, "state", state, "err", err)
		return pageResult{state: common.PageFailed, extracted: true, fellBack: outcome.FellBack, repairs: repairs}
	}

	logger.Debug("[Graph][Page] Done", "page", pg.PageRef, "steps", len(steps), "repairs", repairs)
	return pageResult{state: common.PageDone, extracted: true, fellBack: outcome.FellBack, repairs: repairs}
}
