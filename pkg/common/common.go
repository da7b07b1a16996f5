package common

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Segment is one unit of source text within a page. Segments are owned by
// the segment store and only read by the extraction pipeline. The ID encodes
// work, page and ordinal, e.g. "Berakhot 2a:1".
type Segment struct {
	ID            string `json:"id"`
	PageRef       string `json:"page_ref"`
	PrimaryText   string `json:"primary_text"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// Strategy identifies which analyzer produced a discourse unit.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyAssisted  Strategy = "assisted"
)

// DiscourseUnit is the structured summary record for one page's complete
// argument (a sugya). PageRef is the natural key: re-extraction of the same
// page updates the unit in place and never duplicates it.
type DiscourseUnit struct {
	PageRef      string    `json:"page_ref"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Theme        string    `json:"theme"`
	MainQuestion string    `json:"main_question"`
	Strategy     Strategy  `json:"extraction_strategy"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StepType classifies one argumentation step. The enumeration is closed:
// anything an analyzer emits outside of it is coerced to StepStatement.
type StepType string

const (
	StepTeaching   StepType = "teaching"
	StepQuestion   StepType = "question"
	StepChallenge  StepType = "challenge"
	StepResolution StepType = "resolution"
	StepDispute    StepType = "dispute"
	StepProof      StepType = "proof"
	StepRefutation StepType = "refutation"
	StepConclusion StepType = "conclusion"
	StepUnresolved StepType = "unresolved"
	StepStatement  StepType = "statement"
)

// stepTypeAliases maps the loose vocabulary used in the source material to
// the closed enumeration.
var stepTypeAliases = map[string]StepType{
	"teaching":   StepTeaching,
	"mishnah":    StepTeaching,
	"braita":     StepTeaching,
	"question":   StepQuestion,
	"kasha":      StepChallenge,
	"kushya":     StepChallenge,
	"teyuvta":    StepChallenge,
	"challenge":  StepChallenge,
	"answer":     StepResolution,
	"terutz":     StepResolution,
	"teshuvah":   StepResolution,
	"peshat":     StepResolution,
	"resolution": StepResolution,
	"dispute":    StepDispute,
	"machloket":  StepDispute,
	"pluga":      StepDispute,
	"proof":      StepProof,
	"refutation": StepRefutation,
	"conclusion": StepConclusion,
	"teiku":      StepUnresolved,
	"unresolved": StepUnresolved,
	"statement":  StepStatement,
}

// ParseStepType coerces a raw type value to the closed enumeration.
// Unknown and empty values map to StepStatement, never to an error.
func ParseStepType(raw string) StepType {
	if t, ok := stepTypeAliases[raw]; ok {
		return t
	}
	return StepStatement
}

// StepNode is one typed step in a page's argumentation sequence.
// Sequence values are 1-based and contiguous within a page. ParentSequence
// references an earlier step on the same page; zero means no parent.
type StepNode struct {
	ID             string   `json:"id"`
	PageRef        string   `json:"page_ref"`
	Type           StepType `json:"type"`
	Label          string   `json:"label"`
	Speaker        string   `json:"speaker,omitempty"`
	ContentPreview string   `json:"content_preview,omitempty"`
	Sequence       int      `json:"sequence"`
	ParentSequence int      `json:"parent_sequence,omitempty"`
}

// StepNodeID derives the stable node id for a page's step at the given
// sequence.
func StepNodeID(pageRef string, sequence int) string {
	return fmt.Sprintf("%s-%d", pageRef, sequence)
}

// ContentHash returns a stable hash of the step's content, independent of
// its sequence number. External attachments that need to survive a
// re-extraction renumbering can key on it.
func (s StepNode) ContentHash() string {
	h := sha256.Sum256([]byte(string(s.Type) + "\x00" + s.Label + "\x00" + s.ContentPreview))
	return hex.EncodeToString(h[:8])
}

// AnalysisStep is one step as reported by an analyzer, before validation.
type AnalysisStep struct {
	Type           string `json:"type"`
	Label          string `json:"label"`
	Speaker        string `json:"speaker"`
	ContentPreview string `json:"content_preview"`
	ParentSequence int    `json:"parent_sequence"`
}

// AnalysisResult is the canonical output contract shared by all analyzers.
type AnalysisResult struct {
	Title        string         `json:"title"`
	Summary      string         `json:"summary"`
	Theme        string         `json:"theme"`
	MainQuestion string         `json:"main_question"`
	Steps        []AnalysisStep `json:"steps"`
}

// Sentinel errors for the pipeline's failure taxonomy. Page-level failures
// are recovered by the orchestrator; only configuration errors propagate to
// the caller of a batch run.
var (
	ErrBadSegmentID  = errors.New("segment id does not match page pattern")
	ErrAnalysis      = errors.New("structural analysis failed")
	ErrPersistence   = errors.New("graph persistence failed")
	ErrConfiguration = errors.New("missing or invalid capability wiring")
)
