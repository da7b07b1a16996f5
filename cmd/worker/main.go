package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dafgraph/backend/internal/queue"
	"github.com/dafgraph/backend/internal/storage"
	"github.com/dafgraph/backend/internal/util"
	"github.com/dafgraph/backend/pkg/ai"
	oai "github.com/dafgraph/backend/pkg/ai/ollama"
	gai "github.com/dafgraph/backend/pkg/ai/openai"
	"github.com/dafgraph/backend/pkg/analyze"
	"github.com/dafgraph/backend/pkg/graph"
	"github.com/dafgraph/backend/pkg/leaselock"
	"github.com/dafgraph/backend/pkg/logger"
	"github.com/dafgraph/backend/pkg/logger/console"
	"github.com/dafgraph/backend/pkg/segment"
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

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	analyzer, aiClient := newAnalyzer()

	caps, err := storage.InitCapabilities(ctx)
	if err != nil {
		logger.Fatal("Failed to wire storage", "err", err)
	}
	defer caps.Close()

	normalizer := segment.NewNormalizer(segment.NormalizerParams{
		ContentBudget: util.GetEnvInt("CONTENT_BUDGET", 0),
		TokenEncoder:  util.GetEnv("TOKEN_ENCODER"),
	})

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Source:     caps.Source,
		Analyzer:   analyzer,
		Storage:    caps.Storage,
		Normalizer: normalizer,

		ParallelPages: util.GetEnvInt("PARALLEL_PAGES", 0),
		ParallelWorks: util.GetEnvInt("PARALLEL_WORKS", 0),
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	// With a postgres store, a lease serializes batch runs across workers.
	var leaseClient *leaselock.Client
	if caps.Pool != nil {
		leaseClient = leaselock.New(caps.Pool)
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.ExtractQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages")

	// One message at a time; an extraction run saturates the worker on its own.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				if leaseClient != nil {
					processingErr = leaseClient.WithLease(ctx, "extract_run", leaselock.Options{
						TTL:  10 * time.Minute,
						Wait: true,
					}, func(leaseCtx context.Context) error {
						return queue.ProcessExtractMessage(leaseCtx, graphClient, caps.Pool, string(qm.msg.Body))
					})
				} else {
					processingErr = queue.ProcessExtractMessage(ctx, graphClient, nil, string(qm.msg.Body))
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					err = qm.msg.Ack(false)
					if err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				if aiClient != nil {
					metrics := aiClient.GetMetrics()
					aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
					aiHours := int(aiDuration.Hours())
					aiMinutes := int(aiDuration.Minutes()) % 60
					aiSeconds := int(aiDuration.Seconds()) % 60
					logger.Info(
						"AI Metrics",
						"input_tokens", metrics.InputTokens,
						"output_tokens", metrics.OutputTokens,
						"total_tokens", metrics.TotalTokens,
						"duration", fmt.Sprintf("%02d:%02d:%02d", aiHours, aiMinutes, aiSeconds),
					)
					aiClient.ResetMetrics()
				}

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// After 10 attempts the job parks in the DLQ for inspection.
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
