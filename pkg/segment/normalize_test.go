package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dafgraph/backend/pkg/common"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain text untouched",
			raw:  "מאימתי קורין את שמע",
			want: "מאימתי קורין את שמע",
		},
		{
			name: "bold tags removed",
			raw:  "<b>MISHNA:</b> From when does one recite",
			want: "MISHNA: From when does one recite",
		},
		{
			name: "nested tags removed",
			raw:  "<span class=\"it\"><i>Shema</i></span> in the evening",
			want: "Shema in the evening",
		},
		{
			name: "empty string",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.raw); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	n := NewNormalizer(NormalizerParams{})

	segments := []common.Segment{
		{ID: "Berakhot 2a:1", PrimaryText: "<b>מאימתי</b> קורין", SecondaryText: "From when does one recite"},
		{ID: "Berakhot 2a:2", PrimaryText: "עד סוף האשמורה"},
		{ID: "Berakhot 2a:3", PrimaryText: "   "},
	}

	got := n.Combine(segments)
	want := "מאימתי קורין\n\nFrom when does one recite\n\nעד סוף האשמורה"
	if got != want {
		t.Errorf("Combine() = %q, want %q", got, want)
	}
}

func TestCombineTruncation(t *testing.T) {
	n := NewNormalizer(NormalizerParams{ContentBudget: 50})

	segments := []common.Segment{
		{ID: "Berakhot 2a:1", PrimaryText: strings.Repeat("אמר ", 100)},
	}

	got := n.Combine(segments)
	if len(got) > 50 {
		t.Errorf("Combine() produced %d bytes, budget is 50", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("Combine() split a rune at the truncation point")
	}
}

func TestCombineEmpty(t *testing.T) {
	n := NewNormalizer(NormalizerParams{})
	if got := n.Combine(nil); got != "" {
		t.Errorf("Combine(nil) = %q, want empty", got)
	}
	if got := n.Combine([]common.Segment{{PrimaryText: ""}}); got != "" {
		t.Errorf("Combine() of empty segments = %q, want empty", got)
	}
}
