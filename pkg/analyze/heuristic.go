package analyze

import (
	"context"
	"strings"

	"github.com/dafgraph/backend/pkg/common"
)

const (
	// DefaultMinSteps is the minimum number of steps the heuristic
	// guarantees, so downstream invariants hold even on very short input.
	DefaultMinSteps = 2

	// DefaultMaxSteps caps the number of clauses scanned per page.
	DefaultMaxSteps = 15

	maxLabelLen   = 80
	maxPreviewLen = 100
)

// Lexical cues of the source language. The gemara's dialectic markers are
// formulaic enough that keyword matching recovers most of the structure.
var (
	interrogativeCues = []string{"למה", "מאי", "מנא", "היכי", "ממאי", "מהו"}
	challengeCues     = []string{"מיתיבי", "איתיביה", "ורמינהו", "והא", "אלא"}
	refutationCues    = []string{"תיובתא"}
	unresolvedCues    = []string{"תיקו"}
	disputeCues       = []string{"פלוגתא", "מחלוקת", "איכא דאמרי"}
	citationCues      = []string{"תנן", "תניא", "דכתיב", "שנאמר", "דתניא"}
	assertionCues     = []string{"אמר", "אמרו"}
)

// Heuristic is the deterministic, keyword-driven analyzer. It has no
// external dependencies and never fails.
type Heuristic struct {
	minSteps int
	maxSteps int
}

// HeuristicParams configures a Heuristic. Zero values select the defaults.
type HeuristicParams struct {
	MinSteps int
	MaxSteps int
}

func NewHeuristic(params HeuristicParams) *Heuristic {
	minSteps := params.MinSteps
	if minSteps <= 0 {
		minSteps = DefaultMinSteps
	}
	maxSteps := params.MaxSteps
	if maxSteps < minSteps {
		maxSteps = DefaultMaxSteps
	}
	return &Heuristic{minSteps: minSteps, maxSteps: maxSteps}
}

func (h *Heuristic) Strategy() common.Strategy {
	return common.StrategyHeuristic
}

// Analyze classifies the page's clauses into typed steps by lexical cues
// and position, producing a linear chain except where a challenge or
// dispute attaches to the step it contests.
func (h *Heuristic) Analyze(ctx context.Context, pageRef string, content string) (*Outcome, error) {
	clauses := splitClauses(content, h.maxSteps)

	steps := make([]common.AnalysisStep, 0, len(clauses))
	for i, clause := range clauses {
		stepType := classifyClause(clause, i, steps)
		steps = append(steps, common.AnalysisStep{
			Type:           string(stepType),
			Label:          clip(clause, maxLabelLen),
			Speaker:        speakerFor(stepType, i),
			ContentPreview: clip(clause, maxPreviewLen),
			ParentSequence: parentFor(stepType, steps),
		})
	}

	steps = h.padToMinimum(steps)

	mainQuestion := "What is the main topic of discussion?"
	if len(clauses) > 0 {
		mainQuestion = clip(clauses[0], maxPreviewLen)
	}

	return &Outcome{
		Result: &common.AnalysisResult{
			Title:        "Discussion on " + pageRef,
			Summary:      "Dialectic discussion from " + pageRef,
			Theme:        "Halakhic discourse",
			MainQuestion: mainQuestion,
			Steps:        steps,
		},
		Strategy: common.StrategyHeuristic,
	}, nil
}

// splitClauses breaks the combined content into candidate clauses, at most
// max of them.
func splitClauses(content string, max int) []string {
	var clauses []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		clauses = append(clauses, line)
		if len(clauses) >= max {
			break
		}
	}
	return clauses
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

func classifyClause(clause string, index int, prior []common.AnalysisStep) common.StepType {
	if index == 0 {
		return common.StepTeaching
	}

	switch {
	case containsAny(clause, refutationCues):
		return common.StepRefutation
	case containsAny(clause, unresolvedCues):
		return common.StepUnresolved
	case containsAny(clause, disputeCues):
		return common.StepDispute
	case containsAny(clause, challengeCues):
		return common.StepChallenge
	case strings.Contains(clause, "?") || containsAny(clause, interrogativeCues):
		// An interrogative aimed at a standing claim is a challenge; an
		// opening interrogative is a plain question.
		if lastType(prior) == common.StepTeaching || lastType(prior) == common.StepResolution {
			return common.StepChallenge
		}
		return common.StepQuestion
	case containsAny(clause, citationCues):
		return common.StepProof
	case containsAny(clause, assertionCues):
		return common.StepTeaching
	}

	switch lastType(prior) {
	case common.StepQuestion, common.StepChallenge, common.StepDispute:
		return common.StepResolution
	default:
		return common.StepStatement
	}
}

func lastType(steps []common.AnalysisStep) common.StepType {
	if len(steps) == 0 {
		return ""
	}
	return common.StepType(steps[len(steps)-1].Type)
}

// parentFor attaches the new step to its predecessor, except challenges
// and disputes, which attach to the step they contest: the most recent
// claim-bearing step.
func parentFor(stepType common.StepType, prior []common.AnalysisStep) int {
	if len(prior) == 0 {
		return 0
	}

	if stepType == common.StepChallenge || stepType == common.StepDispute {
		for i := len(prior) - 1; i >= 0; i-- {
			switch common.StepType(prior[i].Type) {
			case common.StepTeaching, common.StepProof, common.StepResolution, common.StepStatement, common.StepConclusion:
				return i + 1
			}
		}
	}

	return len(prior)
}

// padToMinimum appends a generic challenge/resolution/conclusion tail when
// the input produced fewer steps than the configured minimum.
func (h *Heuristic) padToMinimum(steps []common.AnalysisStep) []common.AnalysisStep {
	filler := []common.AnalysisStep{
		{Type: string(common.StepTeaching), Label: "Opening teaching", Speaker: "Tanna"},
		{Type: string(common.StepChallenge), Label: "Challenge to the statement", Speaker: "Gemara"},
		{Type: string(common.StepResolution), Label: "Resolution of the challenge", Speaker: "Gemara"},
		{Type: string(common.StepProof), Label: "Proof from another source", Speaker: "Gemara"},
		{Type: string(common.StepConclusion), Label: "Final ruling", Speaker: "Gemara"},
	}

	for len(steps) < h.minSteps {
		f := filler[len(steps)%len(filler)]
		f.ParentSequence = len(steps)
		steps = append(steps, f)
	}
	return steps
}

func speakerFor(stepType common.StepType, index int) string {
	if index == 0 {
		return "Tanna"
	}
	switch stepType {
	case common.StepDispute:
		return "Amoraim"
	default:
		return "Gemara"
	}
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
