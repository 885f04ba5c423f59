package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"techdocs/config"
	handlers "techdocs/handler"
	"techdocs/pkg/logger"
	"techdocs/pkg/printer"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Configuration comes from .env (when present) and the environment.
	cfg := config.Load()

	// 2. Logging goes to stderr, quiet unless LOG_LEVEL asks for more.
	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q: %v\n", cfg.LogLevel, err)
		return 2
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the session store and restore any saved session.
	p := printer.New(os.Stdout, os.Stderr)
	app, err := handlers.Open(ctx, cfg, p)
	if err != nil {
		p.Fail("Could not start techdocs", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Sugar.Errorf("Failed to close session store: %v", err)
		}
	}()

	// 4. Run the command; the route guard runs before it.
	if err := handlers.Execute(ctx, app, os.Args[1:]); err != nil {
		return 1
	}
	return 0
}
