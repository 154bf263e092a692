package main

import (
	_ "github.com/lib/pq"

	"trellis/internal/server"
	"trellis/internal/util"
	"trellis/pkg/logger"
	"trellis/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
