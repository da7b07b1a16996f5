package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dafgraph/backend/internal/server/middleware"
	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
)

// GetSugyotHandler lists every extracted discourse unit.
func GetSugyotHandler(c echo.Context) error {
	type getSugyotResponse struct {
		Message string                 `json:"message"`
		Sugyot  []common.DiscourseUnit `json:"sugyot"`
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	units, err := storage.ListDiscourseUnits(ctx)
	if err != nil {
		logger.Error("Failed to list discourse units", "err", err)
		return c.JSON(http.StatusInternalServerError, getSugyotResponse{
			Message: "Internal server error",
		})
	}
	if units == nil {
		units = []common.DiscourseUnit{}
	}

	return c.JSON(http.StatusOK, getSugyotResponse{
		Message: "OK",
		Sugyot:  units,
	})
}

// GetSugyaHandler returns one discourse unit by its page reference, e.g.
// "Berakhot 2a".
func GetSugyaHandler(c echo.Context) error {
	type getSugyaResponse struct {
		Message string                `json:"message"`
		Sugya   *common.DiscourseUnit `json:"sugya,omitempty"`
	}

	pageRef := c.Param("ref")
	if pageRef == "" {
		return c.JSON(http.StatusBadRequest, getSugyaResponse{
			Message: "Missing page reference",
		})
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	unit, err := storage.GetDiscourseUnit(ctx, pageRef)
	if err != nil {
		logger.Error("Failed to get discourse unit", "page", pageRef, "err", err)
		return c.JSON(http.StatusInternalServerError, getSugyaResponse{
			Message: "Internal server error",
		})
	}
	if unit == nil {
		return c.JSON(http.StatusNotFound, getSugyaResponse{
			Message: "Sugya not found",
		})
	}

	return c.JSON(http.StatusOK, getSugyaResponse{
		Message: "OK",
		Sugya:   unit,
	})
}

// GetSugyaFlowHandler returns one discourse unit together with its ordered
// argumentation steps.
func GetSugyaFlowHandler(c echo.Context) error {
	type getSugyaFlowResponse struct {
		Message string                `json:"message"`
		Sugya   *common.DiscourseUnit `json:"sugya,omitempty"`
		Steps   []common.StepNode     `json:"steps,omitempty"`
	}

	pageRef := c.Param("ref")
	if pageRef == "" {
		return c.JSON(http.StatusBadRequest, getSugyaFlowResponse{
			Message: "Missing page reference",
		})
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	unit, err := storage.GetDiscourseUnit(ctx, pageRef)
	if err != nil {
		logger.Error("Failed to get discourse unit", "page", pageRef, "err", err)
		return c.JSON(http.StatusInternalServerError, getSugyaFlowResponse{
			Message: "Internal server error",
		})
	}
	if unit == nil {
		return c.JSON(http.StatusNotFound, getSugyaFlowResponse{
			Message: "Sugya not found",
		})
	}

	steps, err := storage.GetSteps(ctx, pageRef)
	if err != nil {
		logger.Error("Failed to get steps", "page", pageRef, "err", err)
		return c.JSON(http.StatusInternalServerError, getSugyaFlowResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getSugyaFlowResponse{
		Message: "OK",
		Sugya:   unit,
		Steps:   steps,
	})
}
