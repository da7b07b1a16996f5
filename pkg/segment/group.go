package segment

import (
	"fmt"
	"regexp"

	"github.com/dafgraph/backend/pkg/common"
)

// Segment IDs follow "<work> <page>:<ordinal>", where the page label is a
// folio number plus side, e.g. "Berakhot 2a:1".
var segmentIDPattern = regexp.MustCompile(`^(.+)\s(\d+[ab]):(\d+)$`)

// ParseSegmentID splits a segment ID into its work name and page label.
func ParseSegmentID(id string) (work string, page string, err error) {
	m := segmentIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", common.ErrBadSegmentID, id)
	}
	return m[1], m[2], nil
}

// PageGroup is one page's ordered segment list.
type PageGroup struct {
	PageRef  string
	Segments []common.Segment
}

// GroupByPage partitions a flat segment list into per-page groups. Group
// order is first-seen order of the page in the input; segment order within
// a group is input order. Segments with unparseable IDs are skipped.
func GroupByPage(segments []common.Segment) []PageGroup {
	index := make(map[string]int)
	var groups []PageGroup

	for _, s := range segments {
		work, page, err := ParseSegmentID(s.ID)
		if err != nil {
			continue
		}
		pageRef := work + " " + page
		i, ok := index[pageRef]
		if !ok {
			i = len(groups)
			index[pageRef] = i
			groups = append(groups, PageGroup{PageRef: pageRef})
		}
		s.PageRef = pageRef
		groups[i].Segments = append(groups[i].Segments, s)
	}

	return groups
}
