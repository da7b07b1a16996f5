package store

import (
	"context"

	"github.com/dafgraph/backend/pkg/common"
)

// GraphStorage is the persistence capability for the discourse graph.
//
// Implementations must honor the idempotence contract: UpsertDiscourseUnit
// keys on PageRef (create-or-update, CreatedAt preserved on update), and
// ReplaceSteps swaps a page's complete step set atomically - a reader never
// observes a mix of old and new steps, and a failure leaves the prior
// complete state untouched.
type GraphStorage interface {
	// UpsertDiscourseUnit creates or updates the unit keyed by PageRef.
	UpsertDiscourseUnit(ctx context.Context, unit common.DiscourseUnit) error

	// ReplaceSteps deletes every persisted step of the page together with
	// its flow and parent edges, then writes the new step set with
	// sequential LEADS_TO edges and parent edges, as one atomic unit.
	ReplaceSteps(ctx context.Context, pageRef string, steps []common.StepNode) error

	// LinkSegments records containment edges from the page's discourse
	// unit to each originating segment.
	LinkSegments(ctx context.Context, pageRef string, segmentIDs []string) error

	// GetDiscourseUnit returns the unit for a page, or nil when the page
	// has not been extracted.
	GetDiscourseUnit(ctx context.Context, pageRef string) (*common.DiscourseUnit, error)

	// GetSteps returns the page's steps ordered by sequence.
	GetSteps(ctx context.Context, pageRef string) ([]common.StepNode, error)

	// ListDiscourseUnits returns all extracted units ordered by PageRef.
	ListDiscourseUnits(ctx context.Context) ([]common.DiscourseUnit, error)
}
