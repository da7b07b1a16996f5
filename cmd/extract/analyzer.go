package main

import (
	"github.com/dafgraph/backend/internal/util"
	"github.com/dafgraph/backend/pkg/ai"
	oai "github.com/dafgraph/backend/pkg/ai/ollama"
	gai "github.com/dafgraph/backend/pkg/ai/openai"
	"github.com/dafgraph/backend/pkg/analyze"
	"github.com/dafgraph/backend/pkg/logger"
)

func newCompletionClient() ai.CompletionClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.New(oai.Params{
			Model:   util.GetEnv("AI_CHAT_MODEL"),
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			APIKey:  util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		client := gai.New(gai.Params{
			Model:   util.GetEnv("AI_CHAT_MODEL"),
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			APIKey:  util.GetEnv("AI_CHAT_KEY"),
		})
		if client == nil {
			return nil
		}
		return client
	}
}

func newAnalyzer() (analyze.Analyzer, ai.CompletionClient) {
	heuristic := analyze.NewHeuristic(analyze.HeuristicParams{
		MinSteps: util.GetEnvInt("ANALYZE_MIN_STEPS", 0),
		MaxSteps: util.GetEnvInt("ANALYZE_MAX_STEPS", 0),
	})

	strategy := util.GetEnvString("ANALYSIS_STRATEGY", "assisted")
	if strategy == "heuristic" {
		logger.Info("Using heuristic analysis")
		return heuristic, nil
	}

	aiClient := newCompletionClient()
	if aiClient == nil {
		logger.Warn("No AI credentials configured, falling back to heuristic analysis")
		return heuristic, nil
	}

	assisted, err := analyze.NewAssisted(analyze.AssistedParams{
		Client:         aiClient,
		Fallback:       heuristic,
		RequestsPerMin: util.GetEnvInt("AI_REQUESTS_PER_MIN", 0),
	})
	if err != nil {
		logger.Fatal("Could not create assisted analyzer", "err", err)
	}
	return assisted, aiClient
}
