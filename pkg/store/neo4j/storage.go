package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/dafgraph/backend/pkg/common"
)

// UpsertDiscourseUnit creates or updates the Sugya node keyed by page_ref.
// created_at is set only on first creation; updated_at on every write.
func (s *Store) UpsertDiscourseUnit(ctx context.Context, unit common.DiscourseUnit) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (s:Sugya {page_ref: $page_ref})
ON CREATE SET s.created_at = $now
SET s.title = $title,
    s.summary = $summary,
    s.theme = $theme,
    s.main_question = $main_question,
    s.extraction_strategy = $strategy,
    s.updated_at = $now
`, map[string]any{
			"page_ref":      unit.PageRef,
			"title":         unit.Title,
			"summary":       unit.Summary,
			"theme":         unit.Theme,
			"main_question": unit.MainQuestion,
			"strategy":      string(unit.Strategy),
			"now":           time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: upsert discourse unit %s: %v", common.ErrPersistence, unit.PageRef, err)
	}
	return nil
}

// ReplaceSteps swaps the page's complete step set inside one managed
// transaction: old DialecticNode nodes and their edges are detached and
// deleted, then the new set is written with RESPONDS_TO parent edges and
// LEADS_TO flow edges between consecutive sequences.
func (s *Store) ReplaceSteps(ctx context.Context, pageRef string, steps []common.StepNode) error {
	rows := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		rows = append(rows, map[string]any{
			"id":              step.ID,
			"page_ref":        step.PageRef,
			"type":            string(step.Type),
			"label":           step.Label,
			"speaker":         step.Speaker,
			"content_preview": step.ContentPreview,
			"content_hash":    step.ContentHash(),
			"sequence":        step.Sequence,
			"parent_sequence": step.ParentSequence,
		})
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (d:DialecticNode {page_ref: $page_ref})
DETACH DELETE d
`, map[string]any{"page_ref": pageRef})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(rows) == 0 {
			return nil, nil
		}

		res, err = tx.Run(ctx, `
MATCH (s:Sugya {page_ref: $page_ref})
UNWIND $steps AS step
CREATE (d:DialecticNode {
  id: step.id,
  page_ref: step.page_ref,
  type: step.type,
  label: step.label,
  speaker: step.speaker,
  content_preview: step.content_preview,
  content_hash: step.content_hash,
  sequence: step.sequence,
  parent_sequence: step.parent_sequence
})
CREATE (s)-[:HAS_STEP]->(d)
`, map[string]any{"page_ref": pageRef, "steps": rows})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
MATCH (a:DialecticNode {page_ref: $page_ref})
MATCH (b:DialecticNode {page_ref: $page_ref})
WHERE b.sequence = a.sequence + 1
CREATE (a)-[:LEADS_TO]->(b)
`, map[string]any{"page_ref": pageRef})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
MATCH (child:DialecticNode {page_ref: $page_ref})
WHERE child.parent_sequence > 0
MATCH (parent:DialecticNode {page_ref: $page_ref, sequence: child.parent_sequence})
CREATE (child)-[:RESPONDS_TO]->(parent)
`, map[string]any{"page_ref": pageRef})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: replace steps for %s: %v", common.ErrPersistence, pageRef, err)
	}
	return nil
}

// LinkSegments records containment edges from the Sugya to each
// originating Text node.
func (s *Store) LinkSegments(ctx context.Context, pageRef string, segmentIDs []string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (s:Sugya {page_ref: $page_ref})
UNWIND $segment_ids AS sid
MATCH (t:Text {id: sid})
MERGE (s)-[:CONTAINS_TEXT]->(t)
`, map[string]any{"page_ref": pageRef, "segment_ids": segmentIDs})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: link segments for %s: %v", common.ErrPersistence, pageRef, err)
	}
	return nil
}

func (s *Store) GetDiscourseUnit(ctx context.Context, pageRef string) (*common.DiscourseUnit, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (s:Sugya {page_ref: $page_ref})
RETURN s
`, map[string]any{"page_ref": pageRef})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get discourse unit %s: %w", pageRef, err)
	}

	return firstUnit(result.([]*db.Record))
}

// firstUnit maps a unit query's records to the unit, nil when no node
// matched. Only an empty result means absent; query and transport errors
// are the caller's to propagate.
func firstUnit(records []*db.Record) (*common.DiscourseUnit, error) {
	if len(records) == 0 {
		return nil, nil
	}

	nodeVal, _ := records[0].Get("s")
	node, ok := nodeVal.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected record shape for discourse unit")
	}

	unit := unitFromNode(node)
	return &unit, nil
}

func (s *Store) GetSteps(ctx context.Context, pageRef string) ([]common.StepNode, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (d:DialecticNode {page_ref: $page_ref})
RETURN d
ORDER BY d.sequence
`, map[string]any{"page_ref": pageRef})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get steps for %s: %w", pageRef, err)
	}

	records := result.([]*db.Record)
	steps := make([]common.StepNode, 0, len(records))
	for _, record := range records {
		nodeVal, _ := record.Get("d")
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}
		steps = append(steps, stepFromNode(node))
	}
	return steps, nil
}

func (s *Store) ListDiscourseUnits(ctx context.Context) ([]common.DiscourseUnit, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (s:Sugya)
RETURN s
ORDER BY s.page_ref
`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list discourse units: %w", err)
	}

	records := result.([]*db.Record)
	units := make([]common.DiscourseUnit, 0, len(records))
	for _, record := range records {
		nodeVal, _ := record.Get("s")
		node, ok := nodeVal.(neo4j.Node)
		if !ok {
			continue
		}
		units = append(units, unitFromNode(node))
	}
	return units, nil
}

func unitFromNode(node neo4j.Node) common.DiscourseUnit {
	return common.DiscourseUnit{
		PageRef:      stringProp(node, "page_ref"),
		Title:        stringProp(node, "title"),
		Summary:      stringProp(node, "summary"),
		Theme:        stringProp(node, "theme"),
		MainQuestion: stringProp(node, "main_question"),
		Strategy:     common.Strategy(stringProp(node, "extraction_strategy")),
		CreatedAt:    timeProp(node, "created_at"),
		UpdatedAt:    timeProp(node, "updated_at"),
	}
}

func stepFromNode(node neo4j.Node) common.StepNode {
	return common.StepNode{
		ID:             stringProp(node, "id"),
		PageRef:        stringProp(node, "page_ref"),
		Type:           common.StepType(stringProp(node, "type")),
		Label:          stringProp(node, "label"),
		Speaker:        stringProp(node, "speaker"),
		ContentPreview: stringProp(node, "content_preview"),
		Sequence:       intProp(node, "sequence"),
		ParentSequence: intProp(node, "parent_sequence"),
	}
}

func stringProp(node neo4j.Node, key string) string {
	if v, ok := node.Props[key].(string); ok {
		return v
	}
	return ""
}

func intProp(node neo4j.Node, key string) int {
	if v, ok := node.Props[key].(int64); ok {
		return int(v)
	}
	return 0
}

func timeProp(node neo4j.Node, key string) time.Time {
	if v, ok := node.Props[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
