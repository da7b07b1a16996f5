package analyze

import (
	"strings"

	"github.com/dafgraph/backend/pkg/common"
)

// Validate normalizes a raw analysis result into the canonical shape whose
// steps satisfy the step-node invariants: coerced types, contiguous 1-based
// sequences, and parent references that point strictly backwards. Steps
// with empty labels are dropped and the remainder renumbered around the
// gap. The returned repair count records how much correction was needed;
// repairs are expected, not errors.
//
// Validate is pure: it never performs I/O and never mutates its input.
func Validate(raw *common.AnalysisResult) (*common.AnalysisResult, int) {
	repairs := 0

	// First pass: drop unusable steps, tracking how raw positions map to
	// surviving sequences so parent references can follow their step.
	rawToSeq := make([]int, len(raw.Steps)+1)
	kept := make([]common.AnalysisStep, 0, len(raw.Steps))
	for i, step := range raw.Steps {
		if strings.TrimSpace(step.Label) == "" {
			repairs++
			rawToSeq[i+1] = len(kept) // dropped: inherit nearest surviving predecessor
			continue
		}
		kept = append(kept, step)
		rawToSeq[i+1] = len(kept)
	}

	steps := make([]common.AnalysisStep, 0, len(kept))
	for i, step := range kept {
		seq := i + 1

		coerced := common.ParseStepType(step.Type)
		if string(coerced) != step.Type {
			repairs++
		}
		step.Type = string(coerced)

		parent := step.ParentSequence
		if parent < 0 || parent > len(raw.Steps) {
			parent = 0
			repairs++
		}
		if parent > 0 {
			parent = rawToSeq[parent]
		}
		// Missing, forward and self references are rewritten to the
		// nearest valid preceding sequence; forward and self references
		// would otherwise form cycles.
		if parent >= seq {
			parent = seq - 1
			repairs++
		}
		if parent == 0 && seq > 1 {
			parent = seq - 1
		}
		step.ParentSequence = parent

		step.Label = strings.TrimSpace(step.Label)
		step.Speaker = strings.TrimSpace(step.Speaker)
		step.ContentPreview = strings.TrimSpace(step.ContentPreview)

		steps = append(steps, step)
	}

	return &common.AnalysisResult{
		Title:        strings.TrimSpace(raw.Title),
		Summary:      strings.TrimSpace(raw.Summary),
		Theme:        strings.TrimSpace(raw.Theme),
		MainQuestion: strings.TrimSpace(raw.MainQuestion),
		Steps:        steps,
	}, repairs
}

// Steps converts a validated result into persistable step nodes for one
// page. Sequence and ID derivation live here so every storage backend sees
// the same node set.
func Steps(pageRef string, validated *common.AnalysisResult) []common.StepNode {
	nodes := make([]common.StepNode, 0, len(validated.Steps))
	for i, step := range validated.Steps {
		seq := i + 1
		nodes = append(nodes, common.StepNode{
			ID:             common.StepNodeID(pageRef, seq),
			PageRef:        pageRef,
			Type:           common.StepType(step.Type),
			Label:          step.Label,
			Speaker:        step.Speaker,
			ContentPreview: step.ContentPreview,
			Sequence:       seq,
			ParentSequence: step.ParentSequence,
		})
	}
	return nodes
}
