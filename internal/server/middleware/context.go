package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/dafgraph/backend/pkg/store"
)

// App holds the shared capabilities of the HTTP process.
type App struct {
	Storage store.GraphStorage
	Queue   *amqp091.Channel
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(storage store.GraphStorage, queue *amqp091.Channel) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				Storage: storage,
				Queue:   queue,
			}
			return next(&AppContext{Context: c, App: app})
		}
	}
}
