package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/dafgraph/backend/pkg/common"
)

// ListWorks discovers every work that has page-addressed Text nodes.
func (s *Store) ListWorks(ctx context.Context) ([]string, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (t:Text)
WHERE t.id =~ '.+ \\d+[ab]:\\d+'
RETURN DISTINCT head(split(t.id, ' ')) AS work
ORDER BY work
`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover works: %w", err)
	}

	records := result.([]*db.Record)
	seen := make(map[string]struct{}, len(records))
	var works []string
	for _, record := range records {
		v, _ := record.Get("work")
		work, ok := v.(string)
		if !ok || work == "" {
			continue
		}
		if _, dup := seen[work]; dup {
			continue
		}
		seen[work] = struct{}{}
		works = append(works, work)
	}
	sort.Strings(works)
	return works, nil
}

// FetchSegments returns the ordered Text nodes of a work, optionally
// narrowed to one page.
func (s *Store) FetchSegments(ctx context.Context, work string, startPage string, limit int) ([]common.Segment, error) {
	query := `
MATCH (t:Text)
WHERE t.id STARTS WITH $prefix AND t.id =~ '.+ \\d+[ab]:\\d+'
RETURN t.id AS id, t.content_he AS primary_text, t.content_en AS secondary_text
ORDER BY t.id
`
	prefix := work + " "
	if startPage != "" {
		prefix = work + " " + startPage + ":"
	}
	params := map[string]any{"prefix": prefix}
	if limit > 0 {
		query += "LIMIT $limit\n"
		params["limit"] = limit
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch segments for %s: %w", work, err)
	}

	records := result.([]*db.Record)
	segments := make([]common.Segment, 0, len(records))
	for _, record := range records {
		idVal, _ := record.Get("id")
		id, ok := idVal.(string)
		if !ok {
			continue
		}
		primary, _ := record.Get("primary_text")
		secondary, _ := record.Get("secondary_text")
		segments = append(segments, common.Segment{
			ID:            id,
			PrimaryText:   textValue(primary),
			SecondaryText: textValue(secondary),
		})
	}
	return segments, nil
}

// textValue flattens the export's text fields, which hold either a string
// or a list of strings.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
