package openai

import (
	"math"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/dafgraph/backend/pkg/ai"
)

// Client implements ai.CompletionClient against an OpenAI-compatible chat
// completion endpoint.
type Client struct {
	model string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	chat *openai.Client
}

// Params configures a new Client. BaseURL may point at any
// OpenAI-compatible endpoint; an empty value selects the default API host.
type Params struct {
	Model   string
	BaseURL string
	APIKey  string
}

// New creates an OpenAI-backed completion client. It returns nil when no
// API key is configured; callers treat that as the capability being absent.
func New(params Params) *Client {
	if params.APIKey == "" {
		return nil
	}

	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	chat := openai.NewClient(options...)

	return &Client{
		model: params.Model,
		chat:  &chat,
	}
}

func (c *Client) addMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tps := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tps*100) / 100)
	}
}

// ResetMetrics clears accumulated usage metrics.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns accumulated usage metrics.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
