package analyze

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/dafgraph/backend/pkg/ai"
	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
)

const (
	defaultAnalyzeTimeout = 90 * time.Second
	defaultTargetMin      = 10
	defaultTargetMax      = 20
)

type assistedStep struct {
	ID             int    `json:"id" jsonschema_description:"Sequential step number starting at 1"`
	Type           string `json:"type" jsonschema_description:"One of the provided step types"`
	Label          string `json:"label" jsonschema_description:"Clear description of this step, 50-100 characters"`
	Speaker        string `json:"speaker" jsonschema_description:"Who is speaking: Mishnah, Gemara, or the named sage"`
	ContentPreview string `json:"content_preview" jsonschema_description:"First 30-50 words of the step's actual text"`
	ParentID       int    `json:"parent_id" jsonschema_description:"Id of the earlier step this one responds to, 0 for the first step"`
}

type assistedResponse struct {
	Title        string         `json:"title" jsonschema_description:"Concise title capturing the main topic, 5-10 words"`
	Summary      string         `json:"summary" jsonschema_description:"One-sentence summary of the discussion"`
	Theme        string         `json:"theme" jsonschema_description:"The main theme being discussed"`
	MainQuestion string         `json:"main_question" jsonschema_description:"The main question being discussed"`
	Steps        []assistedStep `json:"steps" jsonschema_description:"Every dialectic step of the sugya in order"`
}

// Assisted delegates structural analysis to a text-completion capability.
// Completion calls pass through a shared rate gate and a per-call timeout;
// on any transport or format failure the analyzer falls back to the
// heuristic result for the same page instead of raising.
type Assisted struct {
	client    ai.CompletionClient
	fallback  *Heuristic
	gate      *rate.Limiter
	timeout   time.Duration
	targetMin int
	targetMax int
}

// AssistedParams configures an Assisted analyzer. Client is required;
// everything else has defaults.
type AssistedParams struct {
	Client         ai.CompletionClient
	Fallback       *Heuristic
	RequestsPerMin int
	Timeout        time.Duration
	TargetMin      int
	TargetMax      int
}

func NewAssisted(params AssistedParams) (*Assisted, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("%w: assisted analyzer needs a completion client", common.ErrConfiguration)
	}
	fallback := params.Fallback
	if fallback == nil {
		fallback = NewHeuristic(HeuristicParams{})
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultAnalyzeTimeout
	}
	targetMin := params.TargetMin
	if targetMin <= 0 {
		targetMin = defaultTargetMin
	}
	targetMax := params.TargetMax
	if targetMax < targetMin {
		targetMax = defaultTargetMax
	}

	gate := rate.NewLimiter(rate.Inf, 1)
	if params.RequestsPerMin > 0 {
		gate = rate.NewLimiter(rate.Limit(float64(params.RequestsPerMin)/60.0), params.RequestsPerMin)
	}

	return &Assisted{
		client:    params.Client,
		fallback:  fallback,
		gate:      gate,
		timeout:   timeout,
		targetMin: targetMin,
		targetMax: targetMax,
	}, nil
}

func (a *Assisted) Strategy() common.Strategy {
	return common.StrategyAssisted
}

// Analyze requests a structured analysis from the completion capability,
// degrading to the heuristic on failure. It only returns an error when the
// surrounding context is cancelled before any result could be produced.
func (a *Assisted) Analyze(ctx context.Context, pageRef string, content string) (*Outcome, error) {
	if err := a.gate.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf(AnalysisPromptTemplate, pageRef, content, a.targetMin, a.targetMax)

	var res assistedResponse
	err := a.client.GenerateCompletionWithFormat(
		callCtx,
		"extract_dialectic_structure",
		"Extract the complete dialectic structure of a Talmudic sugya.",
		prompt,
		&res,
		ai.WithSystemPrompts(SystemPrompt),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("[Analyze] Completion failed, falling back to heuristic", "page_ref", pageRef, "err", err)
		return a.fallbackOutcome(ctx, pageRef, content)
	}

	if len(res.Steps) == 0 {
		logger.Warn("[Analyze] Completion returned no steps, falling back to heuristic", "page_ref", pageRef)
		return a.fallbackOutcome(ctx, pageRef, content)
	}

	return &Outcome{
		Result:   res.toResult(),
		Strategy: common.StrategyAssisted,
	}, nil
}

func (a *Assisted) fallbackOutcome(ctx context.Context, pageRef string, content string) (*Outcome, error) {
	out, err := a.fallback.Analyze(ctx, pageRef, content)
	if err != nil {
		return nil, err
	}
	out.FellBack = true
	return out, nil
}

// toResult converts the model's document to the canonical shape. Step ids
// become implicit positions; parent ids are translated to the referenced
// step's position, leaving anything unresolvable to the validator.
func (r *assistedResponse) toResult() *common.AnalysisResult {
	position := make(map[int]int, len(r.Steps))
	for i, s := range r.Steps {
		if _, taken := position[s.ID]; !taken {
			position[s.ID] = i + 1
		}
	}

	steps := make([]common.AnalysisStep, 0, len(r.Steps))
	for _, s := range r.Steps {
		parent := 0
		if s.ParentID != 0 {
			parent = position[s.ParentID]
		}
		steps = append(steps, common.AnalysisStep{
			Type:           s.Type,
			Label:          s.Label,
			Speaker:        s.Speaker,
			ContentPreview: s.ContentPreview,
			ParentSequence: parent,
		})
	}

	return &common.AnalysisResult{
		Title:        r.Title,
		Summary:      r.Summary,
		Theme:        r.Theme,
		MainQuestion: r.MainQuestion,
		Steps:        steps,
	}
}
