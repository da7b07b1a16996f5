package timing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafgraph/backend/pkg/common"
)

// AddRunTime records one finished extraction run for capacity tracking.
func AddRunTime(
	ctx context.Context,
	conn *pgxpool.Pool,
	summary *common.RunSummary,
	durationMs int64,
) error {
	_, err := conn.Exec(ctx, `
INSERT INTO run_stats (run_id, works, pages, saved, failed, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id) DO NOTHING
`, summary.RunID, summary.WorksProcessed, summary.PagesSeen, summary.Saved, summary.Failed, durationMs)
	return err
}

// PredictRunTime estimates how long extracting the given number of pages
// will take, from the mean per-page duration of past runs. Returns zero
// when there is no history yet.
func PredictRunTime(ctx context.Context, conn *pgxpool.Pool, pages int) (int64, error) {
	var msPerPage *float64
	err := conn.QueryRow(ctx, `
SELECT sum(duration_ms)::float8 / nullif(sum(pages), 0)
FROM run_stats
`).Scan(&msPerPage)
	if err != nil {
		return 0, err
	}
	if msPerPage == nil {
		return 0, nil
	}
	return int64(*msPerPage * float64(pages)), nil
}
