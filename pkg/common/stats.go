package common

// PageState is the lifecycle of one page inside a batch run.
type PageState string

const (
	PagePending    PageState = "pending"
	PageAnalyzing  PageState = "analyzing"
	PageValidating PageState = "validating"
	PagePersisting PageState = "persisting"
	PageDone       PageState = "done"
	PageFailed     PageState = "failed"
)

// WorkStats aggregates extraction counters for one work.
type WorkStats struct {
	Work      string `json:"work"`
	PagesSeen int    `json:"pages_seen"`
	Extracted int    `json:"extracted"`
	Saved     int    `json:"saved"`
	Failed    int    `json:"failed"`
	Fallbacks int    `json:"fallbacks"`
	Repairs   int    `json:"repairs"`
	Error     string `json:"error,omitempty"`
}

// RunSummary is the terminal record of a batch run. A run always produces
// one, even when every page failed.
type RunSummary struct {
	RunID          string      `json:"run_id"`
	WorksFound     int         `json:"works_found"`
	WorksProcessed int         `json:"works_processed"`
	PagesSeen      int         `json:"pages_seen"`
	Extracted      int         `json:"extracted"`
	Saved          int         `json:"saved"`
	Failed         int         `json:"failed"`
	Fallbacks      int         `json:"fallbacks"`
	Repairs        int         `json:"repairs"`
	Works          []WorkStats `json:"works"`
}

// Add folds one work's counters into the run totals.
func (r *RunSummary) Add(w WorkStats) {
	r.WorksProcessed++
	r.PagesSeen += w.PagesSeen
	r.Extracted += w.Extracted
	r.Saved += w.Saved
	r.Failed += w.Failed
	r.Fallbacks += w.Fallbacks
	r.Repairs += w.Repairs
	r.Works = append(r.Works, w)
}
