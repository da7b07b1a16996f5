package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafgraph/backend/internal/timing"
	"github.com/dafgraph/backend/pkg/graph"
	"github.com/dafgraph/backend/pkg/logger"
)

// ExtractJobMsg is the payload of one batch extraction job. An empty Works
// slice means every work the segment source knows about; an empty StartPage
// means all pages; a Limit of zero means no segment cap.
type ExtractJobMsg struct {
	Message       string   `json:"message"`
	CorrelationID string   `json:"correlation_id"`
	Works         []string `json:"works,omitempty"`
	StartPage     string   `json:"start_page,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// ProcessExtractMessage runs one batch extraction job end to end. Page and
// work failures are absorbed into the run summary; only configuration
// failures surface as an error, which sends the job to retry.
func ProcessExtractMessage(
	ctx context.Context,
	graphClient *graph.GraphClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(ExtractJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode extract job: %w", err)
	}

	logger.Info("[Queue][Extract] Job received",
		"correlation_id", data.CorrelationID,
		"works", len(data.Works),
		"start_page", data.StartPage,
		"limit", data.Limit)

	startTime := time.Now()
	summary, err := graphClient.ProcessAll(ctx, data.Works, data.StartPage, data.Limit)
	if err != nil {
		return fmt.Errorf("extraction run failed: %w", err)
	}

	if conn != nil {
		if err := timing.AddRunTime(ctx, conn, summary, time.Since(startTime).Milliseconds()); err != nil {
			logger.Warn("[Queue][Extract] Failed to record run stats", "run_id", summary.RunID, "err", err)
		}
	}

	logger.Info("[Queue][Extract] Job completed",
		"correlation_id", data.CorrelationID,
		"run_id", summary.RunID,
		"works", summary.WorksProcessed,
		"pages", summary.PagesSeen,
		"saved", summary.Saved,
		"failed", summary.Failed,
		"fallbacks", summary.Fallbacks)
	return nil
}
