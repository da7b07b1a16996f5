package analyze

import (
	"context"

	"github.com/dafgraph/backend/pkg/common"
)

// Outcome is the result of one structural analysis. Strategy records which
// variant actually produced the result; FellBack is set when the assisted
// analyzer degraded to the heuristic for this page.
type Outcome struct {
	Result   *common.AnalysisResult
	Strategy common.Strategy
	FellBack bool
}

// Analyzer infers the argumentation structure of one page's combined
// content. Implementations must not mutate their inputs and must be safe
// for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, pageRef string, content string) (*Outcome, error)
}
