package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dafgraph/backend/internal/storage"
	"github.com/dafgraph/backend/internal/util"
	"github.com/dafgraph/backend/pkg/graph"
	"github.com/dafgraph/backend/pkg/logger"
	"github.com/dafgraph/backend/pkg/logger/console"
	"github.com/dafgraph/backend/pkg/segment"
	"github.com/dafgraph/backend/pkg/store/memory"
)

// extract runs a batch extraction synchronously, without the queue. Useful
// for one-off backfills and local runs.
func main() {
	works := flag.String("works", "", "comma separated work names, empty for all")
	startPage := flag.String("page", "", "single page label to process, e.g. 2a")
	limit := flag.Int("limit", 0, "max segments per work, 0 for no limit")
	dryRun := flag.Bool("dry-run", false, "run the pipeline against an in-memory store, persist nothing")
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, _ := newAnalyzer()

	caps, err := storage.InitCapabilities(ctx)
	if err != nil {
		logger.Fatal("Failed to wire storage", "err", err)
	}
	defer caps.Close()

	normalizer := segment.NewNormalizer(segment.NormalizerParams{
		ContentBudget: util.GetEnvInt("CONTENT_BUDGET", 0),
		TokenEncoder:  util.GetEnv("TOKEN_ENCODER"),
	})

	graphStorage := caps.Storage
	if *dryRun {
		logger.Info("Dry run, nothing will be persisted")
		graphStorage = memory.New()
	}

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Source:     caps.Source,
		Analyzer:   analyzer,
		Storage:    graphStorage,
		Normalizer: normalizer,

		ParallelPages: util.GetEnvInt("PARALLEL_PAGES", 0),
		ParallelWorks: util.GetEnvInt("PARALLEL_WORKS", 0),
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	var workList []string
	if *works != "" {
		for _, w := range strings.Split(*works, ",") {
			if w = strings.TrimSpace(w); w != "" {
				workList = append(workList, w)
			}
		}
	}

	summary, err := graphClient.ProcessAll(ctx, workList, *startPage, *limit)
	if err != nil {
		logger.Fatal("Extraction run failed", "err", err)
	}

	for _, ws := range summary.Works {
		logger.Info("Work summary",
			"work", ws.Work,
			"pages", ws.PagesSeen,
			"saved", ws.Saved,
			"failed", ws.Failed,
			"fallbacks", ws.Fallbacks,
			"repairs", ws.Repairs)
	}
	logger.Info("Run summary",
		"run_id", summary.RunID,
		"works", summary.WorksProcessed,
		"pages", summary.PagesSeen,
		"saved", summary.Saved,
		"failed", summary.Failed)

	if summary.Failed > 0 && summary.Saved == 0 {
		os.Exit(1)
	}
}
