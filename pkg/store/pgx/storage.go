package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements the GraphStorage interface on PostgreSQL.
// Steps live in their own table keyed by (page_ref, sequence); edges are
// derived from the sequence columns, so replacing a page's steps is a
// delete plus bulk insert inside one transaction.
type GraphDBStorage struct {
	conn pgxIConn
	now  func() time.Time
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage using an
// existing connection or pool.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn, now: time.Now}
}

func (s *GraphDBStorage) UpsertDiscourseUnit(ctx context.Context, unit common.DiscourseUnit) error {
	now := s.now().UTC()
	_, err := s.conn.Exec(ctx, `
INSERT INTO discourse_units (page_ref, title, summary, theme, main_question, strategy, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (page_ref) DO UPDATE SET
	title = EXCLUDED.title,
	summary = EXCLUDED.summary,
	theme = EXCLUDED.theme,
	main_question = EXCLUDED.main_question,
	strategy = EXCLUDED.strategy,
	updated_at = EXCLUDED.updated_at
`, unit.PageRef, unit.Title, unit.Summary, unit.Theme, unit.MainQuestion, string(unit.Strategy), now)
	if err != nil {
		return fmt.Errorf("%w: upsert unit %s: %v", common.ErrPersistence, unit.PageRef, err)
	}
	return nil
}

func (s *GraphDBStorage) ReplaceSteps(ctx context.Context, pageRef string, steps []common.StepNode) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin replace for %s: %v", common.ErrPersistence, pageRef, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM step_nodes WHERE page_ref = $1`, pageRef); err != nil {
		return fmt.Errorf("%w: clear steps for %s: %v", common.ErrPersistence, pageRef, err)
	}

	if len(steps) > 0 {
		rows := make([][]any, 0, len(steps))
		for _, step := range steps {
			rows = append(rows, []any{
				step.ID, step.PageRef, string(step.Type), step.Label,
				step.Speaker, step.ContentPreview, step.Sequence, step.ParentSequence,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgxv5.Identifier{"step_nodes"},
			[]string{"id", "page_ref", "type", "label", "speaker", "content_preview", "sequence", "parent_sequence"},
			pgxv5.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("%w: insert steps for %s: %v", common.ErrPersistence, pageRef, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit replace for %s: %v", common.ErrPersistence, pageRef, err)
	}
	logger.Debug("[Store][ReplaceSteps] Replaced step set", "page", pageRef, "steps", len(steps))
	return nil
}

func (s *GraphDBStorage) LinkSegments(ctx context.Context, pageRef string, segmentIDs []string) error {
	if len(segmentIDs) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx, `
INSERT INTO unit_segments (page_ref, segment_id)
SELECT $1, unnest($2::text[])
ON CONFLICT (page_ref, segment_id) DO NOTHING
`, pageRef, segmentIDs)
	if err != nil {
		return fmt.Errorf("%w: link segments for %s: %v", common.ErrPersistence, pageRef, err)
	}
	return nil
}

func (s *GraphDBStorage) GetDiscourseUnit(ctx context.Context, pageRef string) (*common.DiscourseUnit, error) {
	row := s.conn.QueryRow(ctx, `
SELECT page_ref, title, summary, theme, main_question, strategy, created_at, updated_at
FROM discourse_units WHERE page_ref = $1
`, pageRef)

	var unit common.DiscourseUnit
	var strategy string
	err := row.Scan(&unit.PageRef, &unit.Title, &unit.Summary, &unit.Theme,
		&unit.MainQuestion, &strategy, &unit.CreatedAt, &unit.UpdatedAt)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get unit %s: %v", common.ErrPersistence, pageRef, err)
	}
	unit.Strategy = common.Strategy(strategy)
	return &unit, nil
}

func (s *GraphDBStorage) GetSteps(ctx context.Context, pageRef string) ([]common.StepNode, error) {
	rows, err := s.conn.Query(ctx, `
SELECT id, page_ref, type, label, speaker, content_preview, sequence, parent_sequence
FROM step_nodes WHERE page_ref = $1 ORDER BY sequence
`, pageRef)
	if err != nil {
		return nil, fmt.Errorf("%w: get steps %s: %v", common.ErrPersistence, pageRef, err)
	}
	defer rows.Close()

	var steps []common.StepNode
	for rows.Next() {
		var step common.StepNode
		var stepType string
		err := rows.Scan(&step.ID, &step.PageRef, &stepType, &step.Label,
			&step.Speaker, &step.ContentPreview, &step.Sequence, &step.ParentSequence)
		if err != nil {
			return nil, fmt.Errorf("%w: scan step for %s: %v", common.ErrPersistence, pageRef, err)
		}
		step.Type = common.StepType(stepType)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read steps for %s: %v", common.ErrPersistence, pageRef, err)
	}
	return steps, nil
}

func (s *GraphDBStorage) ListDiscourseUnits(ctx context.Context) ([]common.DiscourseUnit, error) {
	rows, err := s.conn.Query(ctx, `
SELECT page_ref, title, summary, theme, main_question, strategy, created_at, updated_at
FROM discourse_units ORDER BY page_ref
`)
	if err != nil {
		return nil, fmt.Errorf("%w: list units: %v", common.ErrPersistence, err)
	}
	defer rows.Close()

	var units []common.DiscourseUnit
	for rows.Next() {
		var unit common.DiscourseUnit
		var strategy string
		err := rows.Scan(&unit.PageRef, &unit.Title, &unit.Summary, &unit.Theme,
			&unit.MainQuestion, &strategy, &unit.CreatedAt, &unit.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scan unit: %v", common.ErrPersistence, err)
		}
		unit.Strategy = common.Strategy(strategy)
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read units: %v", common.ErrPersistence, err)
	}
	return units, nil
}
