package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/backoffice/internal/app"
	"github.com/samvad-hq/backoffice/internal/cli"
	"github.com/samvad-hq/backoffice/internal/config"
	"github.com/samvad-hq/backoffice/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "backoffice: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout carries command output
	cfg.LogOutput = "stderr"
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, log, true)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err.Error())
		return err
	}
	defer rt.Close()

	return cli.Execute(ctx, args, cli.Deps{
		Service: rt.Service,
		Session: rt,
		Out:     os.Stdout,
	})
}
