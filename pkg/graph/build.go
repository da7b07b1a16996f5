package graph

import (
	"context"
	"fmt"

	"github.com/dafgraph/backend/pkg/analyze"
	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
)

// BuildPage persists one analyzed page: the discourse unit keyed by its
// page reference, the complete replacement step set and the containment
// links back to the source segments. Writers of the same page are
// serialized, so a concurrent re-extraction sees either the old or the new
// graph, never a mix.
func (g *GraphClient) BuildPage(
	ctx context.Context,
	pageRef string,
	outcome *analyze.Outcome,
	steps []common.StepNode,
	segmentIDs []string,
) error {
	unlock := g.lockPage(pageRef)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, g.persistTimeout)
	defer cancel()

	unit := common.DiscourseUnit{
		PageRef:      pageRef,
		Title:        outcome.Result.Title,
		Summary:      outcome.Result.Summary,
		Theme:        outcome.Result.Theme,
		MainQuestion: outcome.Result.MainQuestion,
		Strategy:     outcome.Strategy,
	}
	if unit.Title == "" {
		unit.Title = "Sugya " + pageRef
	}

	if err := g.storage.UpsertDiscourseUnit(ctx, unit); err != nil {
		return fmt.Errorf("failed to upsert discourse unit %s: %w", pageRef, err)
	}
	if err := g.storage.ReplaceSteps(ctx, pageRef, steps); err != nil {
		return fmt.Errorf("failed to replace steps for %s: %w", pageRef, err)
	}
	if err := g.storage.LinkSegments(ctx, pageRef, segmentIDs); err != nil {
		return fmt.Errorf("failed to link segments for %s: %w", pageRef, err)
	}

	logger.Debug("[Graph][BuildPage] Page persisted",
		"page", pageRef, "steps", len(steps), "segments", len(segmentIDs), "strategy", outcome.Strategy)
	return nil
}
