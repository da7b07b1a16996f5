package analyze

import (
	"context"
	"strings"
	"testing"

	"github.com/dafgraph/backend/pkg/common"
)

func TestHeuristicAnalyzeMinimum(t *testing.T) {
	h := NewHeuristic(HeuristicParams{})

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty content", content: ""},
		{name: "single line", content: "תנו רבנן"},
		{name: "whitespace only", content: "   \n  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := h.Analyze(context.Background(), "Berakhot 2a", tt.content)
			if err != nil {
				t.Fatalf("Analyze() error = %v, heuristic must not fail", err)
			}
			if outcome.Strategy != common.StrategyHeuristic {
				t.Errorf("Analyze() strategy = %q, want heuristic", outcome.Strategy)
			}
			if len(outcome.Result.Steps) < DefaultMinSteps {
				t.Errorf("Analyze() produced %d steps, want at least %d", len(outcome.Result.Steps), DefaultMinSteps)
			}
		})
	}
}

func TestHeuristicAnalyzeMaxCap(t *testing.T) {
	h := NewHeuristic(HeuristicParams{})

	lines := make([]string, 0, 40)
	for range 40 {
		lines = append(lines, "אמר רב יהודה אמר שמואל")
	}
	outcome, err := h.Analyze(context.Background(), "Berakhot 2a", strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(outcome.Result.Steps) > DefaultMaxSteps {
		t.Errorf("Analyze() produced %d steps, want at most %d", len(outcome.Result.Steps), DefaultMaxSteps)
	}
}

func TestHeuristicClassification(t *testing.T) {
	h := NewHeuristic(HeuristicParams{})

	content := strings.Join([]string{
		"מאימתי קורין את שמע בערבין",         // first clause, teaching
		"מנא הני מילי",                        // interrogative after teaching, challenge
		"דכתיב ובשכבך ובקומך",                 // citation, proof
		"מיתיבי והתניא בערב",                  // challenge cue
		"אמר רב יהודה לא קשיא",               // assertion, teaching
		"תיקו",                                // unresolved
	}, "\n")

	outcome, err := h.Analyze(context.Background(), "Berakhot 2a", content)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	wantTypes := []common.StepType{
		common.StepTeaching,
		common.StepChallenge,
		common.StepProof,
		common.StepChallenge,
		common.StepTeaching,
		common.StepUnresolved,
	}
	steps := outcome.Result.Steps
	if len(steps) != len(wantTypes) {
		t.Fatalf("Analyze() produced %d steps, want %d", len(steps), len(wantTypes))
	}
	for i, want := range wantTypes {
		if common.StepType(steps[i].Type) != want {
			t.Errorf("step %d type = %q, want %q", i+1, steps[i].Type, want)
		}
	}
}

func TestHeuristicParentsPointBackwards(t *testing.T) {
	h := NewHeuristic(HeuristicParams{MaxSteps: 30})

	content := strings.Join([]string{
		"מאימתי קורין את שמע בערבין",
		"מנא הני מילי",
		"דכתיב ובשכבך",
		"מיתיבי והתניא",
		"אמר רבא לא קשיא",
		"איכא דאמרי הכי",
		"תיובתא דרב",
	}, "\n")

	outcome, err := h.Analyze(context.Background(), "Shabbat 31a", content)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for i, step := range outcome.Result.Steps {
		seq := i + 1
		if step.ParentSequence >= seq {
			t.Errorf("step %d parent %d does not point backwards", seq, step.ParentSequence)
		}
		if step.ParentSequence < 0 {
			t.Errorf("step %d parent %d is negative", seq, step.ParentSequence)
		}
	}
}

func TestHeuristicChallengeAttachesToClaim(t *testing.T) {
	h := NewHeuristic(HeuristicParams{})

	content := strings.Join([]string{
		"מאימתי קורין את שמע",  // 1 teaching
		"למה לי למימר הכי",      // 2 challenge against step 1
		"מיתיבי והא תנן איפכא", // 3 challenge, attaches to most recent claim
	}, "\n")

	outcome, err := h.Analyze(context.Background(), "Berakhot 2b", content)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	steps := outcome.Result.Steps
	if len(steps) < 3 {
		t.Fatalf("Analyze() produced %d steps, want at least 3", len(steps))
	}
	if steps[1].ParentSequence != 1 {
		t.Errorf("first challenge parent = %d, want 1", steps[1].ParentSequence)
	}
	if steps[2].ParentSequence != 1 {
		t.Errorf("second challenge parent = %d, want 1 (most recent claim)", steps[2].ParentSequence)
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	h := NewHeuristic(HeuristicParams{})
	content := "מאימתי קורין את שמע\nמנא הני מילי\nדכתיב ובשכבך"

	first, err := h.Analyze(context.Background(), "Berakhot 2a", content)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := h.Analyze(context.Background(), "Berakhot 2a", content)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(first.Result.Steps) != len(second.Result.Steps) {
		t.Fatalf("repeated Analyze() step counts differ: %d vs %d", len(first.Result.Steps), len(second.Result.Steps))
	}
	for i := range first.Result.Steps {
		if first.Result.Steps[i] != second.Result.Steps[i] {
			t.Errorf("step %d differs between runs", i+1)
		}
	}
}
