package segment

import (
	"context"

	"github.com/dafgraph/backend/pkg/common"
)

// Source supplies raw text segments for named works. It is consumed
// read-only by the extraction pipeline.
type Source interface {
	// ListWorks returns the names of all works that have segments.
	ListWorks(ctx context.Context) ([]string, error)

	// FetchSegments returns the ordered segments of a work. When startPage
	// is non-empty only segments of that page are returned. A limit of zero
	// means no limit.
	FetchSegments(ctx context.Context, work string, startPage string, limit int) ([]common.Segment, error)
}

// MemorySource is a Source backed by a fixed segment list, used in tests
// and dry runs.
type MemorySource struct {
	Segments []common.Segment
}

func (m *MemorySource) ListWorks(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var works []string
	for _, s := range m.Segments {
		work, _, err := ParseSegmentID(s.ID)
		if err != nil {
			continue
		}
		if _, ok := seen[work]; ok {
			continue
		}
		seen[work] = struct{}{}
		works = append(works, work)
	}
	return works, nil
}

func (m *MemorySource) FetchSegments(ctx context.Context, work string, startPage string, limit int) ([]common.Segment, error) {
	var out []common.Segment
	for _, s := range m.Segments {
		w, page, err := ParseSegmentID(s.ID)
		if err != nil || w != work {
			continue
		}
		if startPage != "" && page != startPage {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
