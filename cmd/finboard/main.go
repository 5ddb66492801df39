package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"finboard/internal/cli"
	"finboard/internal/core"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cli.SetupLogger(os.Stderr, cfg.LogLevel)

	ctx, cancel := cli.GracefulShutdown(logger, 5*time.Second, nil)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger, cli.StdIO())
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	err = cli.Run(ctx, app, os.Args[1:])
	if cerr := app.Close(); cerr != nil {
		logger.Warn("Cleanup failed", "error", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", core.UserMessage(err))
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
