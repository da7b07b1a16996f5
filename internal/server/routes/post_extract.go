package routes

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dafgraph/backend/internal/queue"
	"github.com/dafgraph/backend/internal/server/middleware"
	"github.com/dafgraph/backend/pkg/logger"
)

// TriggerExtractionHandler accepts a batch extraction request and enqueues
// it for the worker. The response is the job's correlation id; extraction
// itself runs asynchronously.
func TriggerExtractionHandler(c echo.Context) error {
	type triggerExtractionBody struct {
		Works     []string `json:"works"`
		StartPage string   `json:"start_page" validate:"omitempty,max=16"`
		Limit     int      `json:"limit" validate:"gte=0"`
	}

	type triggerExtractionResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(triggerExtractionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerExtractionResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerExtractionResponse{
			Message: "Invalid request body",
		})
	}

	msg := queue.ExtractJobMsg{
		Message:       "Batch extraction requested",
		CorrelationID: uuid.NewString(),
		Works:         data.Works,
		StartPage:     data.StartPage,
		Limit:         data.Limit,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, triggerExtractionResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ExtractQueue, msgBytes); err != nil {
		logger.Error("Failed to publish extraction job", "err", err)
		return c.JSON(http.StatusInternalServerError, triggerExtractionResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("Extraction job queued",
		"correlation_id", msg.CorrelationID, "works", len(msg.Works), "start_page", msg.StartPage)
	return c.JSON(http.StatusAccepted, triggerExtractionResponse{
		Message:       "Extraction queued",
		CorrelationID: msg.CorrelationID,
	})
}
