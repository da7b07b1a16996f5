package graph

import (
	"fmt"
	"sync"
	"time"

	"github.com/dafgraph/backend/pkg/analyze"
	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/segment"
	"github.com/dafgraph/backend/pkg/store"
)

// GraphClient drives the extraction pipeline: it pulls segments from the
// source, groups them by page, runs structural analysis and persists the
// resulting discourse graph. It manages page and work level parallelism.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	source     segment.Source
	analyzer   analyze.Analyzer
	storage    store.GraphStorage
	normalizer *segment.Normalizer

	parallelPages  int
	parallelWorks  int
	analyzeTimeout time.Duration
	persistTimeout time.Duration

	// pageLocks serializes writers of the same page so concurrent
	// re-extraction cannot interleave unit and step writes.
	pageLocks sync.Map
}

// NewGraphClientParams defines the configuration for a GraphClient.
//
// ParallelPages controls how many pages of one work are analyzed
// concurrently. ParallelWorks controls how many works a batch run processes
// at once. Zero values select the defaults.
type NewGraphClientParams struct {
	Source     segment.Source
	Analyzer   analyze.Analyzer
	Storage    store.GraphStorage
	Normalizer *segment.Normalizer

	ParallelPages  int
	ParallelWorks  int
	AnalyzeTimeout time.Duration
	PersistTimeout time.Duration
}

// NewGraphClient creates a GraphClient. Source, Analyzer and Storage are
// required; a missing capability is a configuration error.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("%w: graph client needs a segment source", common.ErrConfiguration)
	}
	if params.Analyzer == nil {
		return nil, fmt.Errorf("%w: graph client needs an analyzer", common.ErrConfiguration)
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("%w: graph client needs graph storage", common.ErrConfiguration)
	}

	normalizer := params.Normalizer
	if normalizer == nil {
		normalizer = segment.NewNormalizer(segment.NormalizerParams{})
	}
	parallelPages := params.ParallelPages
	if parallelPages <= 0 {
		parallelPages = 4
	}
	parallelWorks := params.ParallelWorks
	if parallelWorks <= 0 {
		parallelWorks = 2
	}
	analyzeTimeout := params.AnalyzeTimeout
	if analyzeTimeout <= 0 {
		analyzeTimeout = 2 * time.Minute
	}
	persistTimeout := params.PersistTimeout
	if persistTimeout <= 0 {
		persistTimeout = 30 * time.Second
	}

	return &GraphClient{
		source:         params.Source,
		analyzer:       params.Analyzer,
		storage:        params.Storage,
		normalizer:     normalizer,
		parallelPages:  parallelPages,
		parallelWorks:  parallelWorks,
		analyzeTimeout: analyzeTimeout,
		persistTimeout: persistTimeout,
	}, nil
}

func (g *GraphClient) lockPage(pageRef string) func() {
	v, _ := g.pageLocks.LoadOrStore(pageRef, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
