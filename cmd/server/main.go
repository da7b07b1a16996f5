package main

import (
	"github.com/dafgraph/backend/internal/server"
	"github.com/dafgraph/backend/internal/util"
	"github.com/dafgraph/backend/pkg/logger"
	"github.com/dafgraph/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
