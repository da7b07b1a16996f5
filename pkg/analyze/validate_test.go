package analyze

import (
	"reflect"
	"testing"

	"github.com/dafgraph/backend/pkg/common"
)

func TestValidateCleanResult(t *testing.T) {
	raw := &common.AnalysisResult{
		Title:        "  The time of the evening Shema  ",
		Summary:      "A dispute about when the evening Shema may be recited.",
		Theme:        "prayer",
		MainQuestion: "From when may one recite the Shema in the evening?",
		Steps: []common.AnalysisStep{
			{Type: "teaching", Label: "Mishnah on the evening Shema", ParentSequence: 0},
			{Type: "question", Label: "On what basis does the tanna start with evening", ParentSequence: 1},
			{Type: "resolution", Label: "Scripture mentions lying down first", ParentSequence: 2},
		},
	}

	got, repairs := Validate(raw)
	if repairs != 0 {
		t.Errorf("Validate() repairs = %d, want 0", repairs)
	}
	if got.Title != "The time of the evening Shema" {
		t.Errorf("Validate() title = %q, want trimmed title", got.Title)
	}
	if len(got.Steps) != 3 {
		t.Fatalf("Validate() kept %d steps, want 3", len(got.Steps))
	}
	for i, step := range got.Steps {
		if step.ParentSequence >= i+1 {
			t.Errorf("step %d parent %d is not strictly backwards", i+1, step.ParentSequence)
		}
	}
}

func TestValidateRepairs(t *testing.T) {
	tests := []struct {
		name        string
		steps       []common.AnalysisStep
		wantKept    int
		wantRepairs int
		wantParents []int
		wantTypes   []string
	}{
		{
			name: "unknown type coerced to statement",
			steps: []common.AnalysisStep{
				{Type: "teaching", Label: "a"},
				{Type: "pilpul", Label: "b", ParentSequence: 1},
			},
			wantKept:    2,
			wantRepairs: 1,
			wantParents: []int{0, 1},
			wantTypes:   []string{"teaching", "statement"},
		},
		{
			name: "alias types normalized to the closed enumeration",
			steps: []common.AnalysisStep{
				{Type: "mishnah", Label: "a"},
				{Type: "kasha", Label: "b", ParentSequence: 1},
				{Type: "terutz", Label: "c", ParentSequence: 2},
			},
			wantKept:    3,
			wantRepairs: 3,
			wantParents: []int{0, 1, 2},
			wantTypes:   []string{"teaching", "challenge", "resolution"},
		},
		{
			name: "forward parent rewritten to predecessor",
			steps: []common.AnalysisStep{
				{Type: "teaching", Label: "a"},
				{Type: "question", Label: "b", ParentSequence: 3},
				{Type: "resolution", Label: "c", ParentSequence: 2},
			},
			wantKept:    3,
			wantRepairs: 1,
			wantParents: []int{0, 1, 2},
			wantTypes:   []string{"teaching", "question", "resolution"},
		},
		{
			name: "self reference rewritten",
			steps: []common.AnalysisStep{
				{Type: "teaching", Label: "a"},
				{Type: "question", Label: "b", ParentSequence: 2},
			},
			wantKept:    2,
			wantRepairs: 1,
			wantParents: []int{0, 1},
			wantTypes:   []string{"teaching", "question"},
		},
		{
			name: "out of range parent reset",
			steps: []common.AnalysisStep{
				{Type: "teaching", Label: "a"},
				{Type: "question", Label: "b", ParentSequence: 99},
			},
			wantKept:    2,
			wantRepairs: 1,
			wantParents: []int{0, 1},
			wantTypes:   []string{"teaching", "question"},
		},
		{
			name: "empty label dropped and remainder renumbered",
			steps: []common.AnalysisStep{
				{Type: "teaching", Label: "a"},
				{Type: "question", Label: "   ", ParentSequence: 1},
				{Type: "resolution", Label: "c", ParentSequence: 2},
			},
			wantKept:    2,
			wantRepairs: 1,
			wantParents: []int{0, 1},
			wantTypes:   []string{"teaching", "resolution"},
		},
		{
			name: "missing parent defaults to previous step",
			steps: []common.AnalysisStep{
				{Type: "teaching", Label: "a"},
				{Type: "statement", Label: "b", ParentSequence: 0},
			},
			wantKept:    2,
			wantRepairs: 0,
			wantParents: []int{0, 1},
			wantTypes:   []string{"teaching", "statement"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repairs := Validate(&common.AnalysisResult{Steps: tt.steps})
			if len(got.Steps) != tt.wantKept {
				t.Fatalf("Validate() kept %d steps, want %d", len(got.Steps), tt.wantKept)
			}
			if repairs != tt.wantRepairs {
				t.Errorf("Validate() repairs = %d, want %d", repairs, tt.wantRepairs)
			}
			parents := make([]int, 0, len(got.Steps))
			types := make([]string, 0, len(got.Steps))
			for _, step := range got.Steps {
				parents = append(parents, step.ParentSequence)
				types = append(types, step.Type)
			}
			if !reflect.DeepEqual(parents, tt.wantParents) {
				t.Errorf("Validate() parents = %v, want %v", parents, tt.wantParents)
			}
			if !reflect.DeepEqual(types, tt.wantTypes) {
				t.Errorf("Validate() types = %v, want %v", types, tt.wantTypes)
			}
		})
	}
}

func TestValidateParentFollowsDroppedStep(t *testing.T) {
	raw := &common.AnalysisResult{
		Steps: []common.AnalysisStep{
			{Type: "teaching", Label: "a"},
			{Type: "question", Label: "", ParentSequence: 1},
			{Type: "resolution", Label: "c", ParentSequence: 2},
			{Type: "challenge", Label: "d", ParentSequence: 2},
		},
	}

	got, _ := Validate(raw)
	if len(got.Steps) != 3 {
		t.Fatalf("Validate() kept %d steps, want 3", len(got.Steps))
	}
	// Both children of the dropped step inherit its nearest surviving
	// predecessor, step 1.
	if got.Steps[1].ParentSequence != 1 {
		t.Errorf("step 2 parent = %d, want 1", got.Steps[1].ParentSequence)
	}
	if got.Steps[2].ParentSequence != 1 {
		t.Errorf("step 3 parent = %d, want 1", got.Steps[2].ParentSequence)
	}
}

func TestValidateNeverProducesCycles(t *testing.T) {
	raw := &common.AnalysisResult{
		Steps: []common.AnalysisStep{
			{Type: "teaching", Label: "a", ParentSequence: 4},
			{Type: "question", Label: "b", ParentSequence: 2},
			{Type: "challenge", Label: "c", ParentSequence: -1},
			{Type: "resolution", Label: "d", ParentSequence: 3},
		},
	}

	got, _ := Validate(raw)
	for i, step := range got.Steps {
		seq := i + 1
		if step.ParentSequence >= seq {
			t.Errorf("step %d parent %d points forward", seq, step.ParentSequence)
		}
		if step.ParentSequence < 0 {
			t.Errorf("step %d parent %d is negative", seq, step.ParentSequence)
		}
	}
	if got.Steps[0].ParentSequence != 0 {
		t.Errorf("first step parent = %d, want 0", got.Steps[0].ParentSequence)
	}
}

func TestSteps(t *testing.T) {
	validated := &common.AnalysisResult{
		Steps: []common.AnalysisStep{
			{Type: "teaching", Label: "a", Speaker: "Tanna"},
			{Type: "question", Label: "b", ParentSequence: 1},
		},
	}

	got := Steps("Berakhot 2a", validated)
	want := []common.StepNode{
		{
			ID:       "Berakhot 2a-1",
			PageRef:  "Berakhot 2a",
			Type:     common.StepTeaching,
			Label:    "a",
			Speaker:  "Tanna",
			Sequence: 1,
		},
		{
			ID:             "Berakhot 2a-2",
			PageRef:        "Berakhot 2a",
			Type:           common.StepQuestion,
			Label:          "b",
			Sequence:       2,
			ParentSequence: 1,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Steps() = %+v, want %+v", got, want)
	}
}
