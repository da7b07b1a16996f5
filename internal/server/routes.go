package server

import (
	"github.com/labstack/echo/v4"

	"github.com/dafgraph/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Extraction routes
	apiRoutes.POST("/extract", routes.TriggerExtractionHandler)

	// Sugya routes
	apiRoutes.GET("/sugyot", routes.GetSugyotHandler)
	apiRoutes.GET("/sugyot/:ref", routes.GetSugyaHandler)
	apiRoutes.GET("/sugyot/:ref/flow", routes.GetSugyaFlowHandler)
}
