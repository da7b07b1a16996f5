package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/dafgraph/backend/pkg/ai"
	"github.com/dafgraph/backend/pkg/common"
)

// fakeCompletionClient scripts the completion capability for tests.
type fakeCompletionClient struct {
	response *assistedResponse
	err      error
	calls    int
}

func (f *fakeCompletionClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeCompletionClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	*out.(*assistedResponse) = *f.response
	return nil
}

func (f *fakeCompletionClient) ResetMetrics()               {}
func (f *fakeCompletionClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestNewAssistedRequiresClient(t *testing.T) {
	_, err := NewAssisted(AssistedParams{})
	if !errors.Is(err, common.ErrConfiguration) {
		t.Errorf("NewAssisted() error = %v, want configuration error", err)
	}
}

func TestAssistedAnalyzeSuccess(t *testing.T) {
	client := &fakeCompletionClient{
		response: &assistedResponse{
			Title:        "The evening Shema",
			Summary:      "When the evening Shema may be recited.",
			Theme:        "prayer",
			MainQuestion: "From when?",
			Steps: []assistedStep{
				{ID: 1, Type: "teaching", Label: "Mishnah states the times", Speaker: "Mishnah"},
				{ID: 2, Type: "question", Label: "Source of the order", Speaker: "Gemara", ParentID: 1},
				{ID: 3, Type: "resolution", Label: "Scripture lists lying down first", Speaker: "Gemara", ParentID: 2},
			},
		},
	}
	a, err := NewAssisted(AssistedParams{Client: client})
	if err != nil {
		t.Fatalf("NewAssisted() error = %v", err)
	}

	outcome, err := a.Analyze(context.Background(), "Berakhot 2a", "content")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if outcome.Strategy != common.StrategyAssisted {
		t.Errorf("Analyze() strategy = %q, want assisted", outcome.Strategy)
	}
	if outcome.FellBack {
		t.Error("Analyze() fell back on a successful completion")
	}
	if len(outcome.Result.Steps) != 3 {
		t.Fatalf("Analyze() produced %d steps, want 3", len(outcome.Result.Steps))
	}
	if outcome.Result.Steps[2].ParentSequence != 2 {
		t.Errorf("step 3 parent = %d, want 2", outcome.Result.Steps[2].ParentSequence)
	}
}

func TestAssistedAnalyzeNonSequentialIDs(t *testing.T) {
	// Models sometimes number steps 10, 20, 30; parents must follow the
	// referenced step's position, not its literal id.
	client := &fakeCompletionClient{
		response: &assistedResponse{
			Title: "t",
			Steps: []assistedStep{
				{ID: 10, Type: "teaching", Label: "a"},
				{ID: 20, Type: "challenge", Label: "b", ParentID: 10},
				{ID: 30, Type: "resolution", Label: "c", ParentID: 20},
			},
		},
	}
	a, err := NewAssisted(AssistedParams{Client: client})
	if err != nil {
		t.Fatalf("NewAssisted() error = %v", err)
	}

	outcome, err := a.Analyze(context.Background(), "Berakhot 3a", "content")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	wantParents := []int{0, 1, 2}
	for i, step := range outcome.Result.Steps {
		if step.ParentSequence != wantParents[i] {
			t.Errorf("step %d parent = %d, want %d", i+1, step.ParentSequence, wantParents[i])
		}
	}
}

func TestAssistedAnalyzeFallsBackOnError(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("model unavailable")}
	a, err := NewAssisted(AssistedParams{Client: client})
	if err != nil {
		t.Fatalf("NewAssisted() error = %v", err)
	}

	outcome, err := a.Analyze(context.Background(), "Berakhot 2a", "מאימתי קורין את שמע\nמנא הני מילי")
	if err != nil {
		t.Fatalf("Analyze() error = %v, fallback must absorb completion failures", err)
	}
	if !outcome.FellBack {
		t.Error("Analyze() FellBack = false, want true")
	}
	if outcome.Strategy != common.StrategyHeuristic {
		t.Errorf("Analyze() strategy = %q, want heuristic after fallback", outcome.Strategy)
	}
	if len(outcome.Result.Steps) < DefaultMinSteps {
		t.Errorf("fallback produced %d steps, want at least %d", len(outcome.Result.Steps), DefaultMinSteps)
	}
}

func TestAssistedAnalyzeFallsBackOnEmptySteps(t *testing.T) {
	client := &fakeCompletionClient{response: &assistedResponse{Title: "empty"}}
	a, err := NewAssisted(AssistedParams{Client: client})
	if err != nil {
		t.Fatalf("NewAssisted() error = %v", err)
	}

	outcome, err := a.Analyze(context.Background(), "Berakhot 2a", "מאימתי קורין את שמע")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !outcome.FellBack {
		t.Error("Analyze() FellBack = false, want true for empty step list")
	}
	if outcome.Strategy != common.StrategyHeuristic {
		t.Errorf("Analyze() strategy = %q, want heuristic", outcome.Strategy)
	}
}

func TestAssistedAnalyzeCancelledContext(t *testing.T) {
	client := &fakeCompletionClient{err: context.Canceled}
	a, err := NewAssisted(AssistedParams{Client: client})
	if err != nil {
		t.Fatalf("NewAssisted() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, "Berakhot 2a", "content"); err == nil {
		t.Error("Analyze() error = nil, want context error")
	}
}
