package segment

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dafgraph/backend/pkg/common"
)

func TestParseSegmentID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantWork string
		wantPage string
		wantErr  bool
	}{
		{
			name:     "simple id",
			id:       "Berakhot 2a:1",
			wantWork: "Berakhot",
			wantPage: "2a",
		},
		{
			name:     "multi word work",
			id:       "Bava Metzia 59b:4",
			wantWork: "Bava Metzia",
			wantPage: "59b",
		},
		{
			name:     "three digit folio",
			id:       "Shabbat 156b:12",
			wantWork: "Shabbat",
			wantPage: "156b",
		},
		{
			name:    "missing ordinal",
			id:      "Berakhot 2a",
			wantErr: true,
		},
		{
			name:    "bad side letter",
			id:      "Berakhot 2c:1",
			wantErr: true,
		},
		{
			name:    "empty id",
			id:      "",
			wantErr: true,
		},
		{
			name:    "chapter style reference",
			id:      "Berakhot 1:1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work, page, err := ParseSegmentID(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSegmentID(%q) error = nil, want error", tt.id)
				}
				if !errors.Is(err, common.ErrBadSegmentID) {
					t.Errorf("ParseSegmentID(%q) error = %v, want ErrBadSegmentID", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSegmentID(%q) error = %v", tt.id, err)
			}
			if work != tt.wantWork || page != tt.wantPage {
				t.Errorf("ParseSegmentID(%q) = (%q, %q), want (%q, %q)", tt.id, work, page, tt.wantWork, tt.wantPage)
			}
		})
	}
}

func TestGroupByPage(t *testing.T) {
	segments := []common.Segment{
		{ID: "Berakhot 2a:1", PrimaryText: "a"},
		{ID: "Berakhot 2a:2", PrimaryText: "b"},
		{ID: "Berakhot 2b:1", PrimaryText: "c"},
		{ID: "not a segment id", PrimaryText: "junk"},
		{ID: "Berakhot 2a:3", PrimaryText: "d"},
	}

	groups := GroupByPage(segments)

	if len(groups) != 2 {
		t.Fatalf("GroupByPage() produced %d groups, want 2", len(groups))
	}
	if groups[0].PageRef != "Berakhot 2a" || groups[1].PageRef != "Berakhot 2b" {
		t.Errorf("GroupByPage() page order = %q, %q; want first-seen order", groups[0].PageRef, groups[1].PageRef)
	}

	gotIDs := make([]string, 0, len(groups[0].Segments))
	for _, s := range groups[0].Segments {
		gotIDs = append(gotIDs, s.ID)
		if s.PageRef != "Berakhot 2a" {
			t.Errorf("segment %s page ref = %q, want %q", s.ID, s.PageRef, "Berakhot 2a")
		}
	}
	wantIDs := []string{"Berakhot 2a:1", "Berakhot 2a:2", "Berakhot 2a:3"}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Errorf("GroupByPage() first group = %v, want %v", gotIDs, wantIDs)
	}
}

func TestGroupByPageEmptyInput(t *testing.T) {
	if groups := GroupByPage(nil); len(groups) != 0 {
		t.Errorf("GroupByPage(nil) = %v, want empty", groups)
	}
	if groups := GroupByPage([]common.Segment{{ID: "garbage"}}); len(groups) != 0 {
		t.Errorf("GroupByPage() with only bad ids = %v, want empty", groups)
	}
}

func TestMemorySource(t *testing.T) {
	src := &MemorySource{Segments: []common.Segment{
		{ID: "Berakhot 2a:1"},
		{ID: "Berakhot 2b:1"},
		{ID: "Shabbat 31a:1"},
		{ID: "broken"},
	}}

	works, err := src.ListWorks(context.Background())
	if err != nil {
		t.Fatalf("ListWorks() error = %v", err)
	}
	if !reflect.DeepEqual(works, []string{"Berakhot", "Shabbat"}) {
		t.Errorf("ListWorks() = %v, want [Berakhot Shabbat]", works)
	}

	segs, err := src.FetchSegments(context.Background(), "Berakhot", "2b", 0)
	if err != nil {
		t.Fatalf("FetchSegments() error = %v", err)
	}
	if len(segs) != 1 || segs[0].ID != "Berakhot 2b:1" {
		t.Errorf("FetchSegments() = %v, want the single 2b segment", segs)
	}

	segs, err = src.FetchSegments(context.Background(), "Berakhot", "", 1)
	if err != nil {
		t.Fatalf("FetchSegments() error = %v", err)
	}
	if len(segs) != 1 {
		t.Errorf("FetchSegments() with limit 1 returned %d segments", len(segs))
	}
}
