package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/llabusch93/reclaim-sdk/internal/cli"
	"github.com/llabusch93/reclaim-sdk/internal/config"
	"github.com/llabusch93/reclaim-sdk/internal/service"
	"github.com/llabusch93/reclaim-sdk/pkg/reclaim"
)

func main() {
	os.Exit(run())
}

func run() int {
	inv, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Fehler beim Parsen der Flags: %v\n", err)
		return 1
	}
	cfg := inv.Config

	logger := config.NewLogger(cfg.LogLevel)

	client, err := reclaim.NewClient(
		reclaim.WithToken(cfg.Token),
		reclaim.WithConfigFile(cfg.ConfigFile),
		reclaim.WithBaseURL(cfg.GetAPIBaseURL()),
		reclaim.WithTimeout(cfg.Timeout),
		reclaim.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Reclaim Client konnte nicht erstellt werden: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := service.NewRunner(cfg, client, os.Stdout)
	req := service.Request{Command: inv.Command, Args: inv.Args, Title: inv.Title}
	if err := runner.Run(ctx, req); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s fehlgeschlagen: %v\n", inv.Command, err)
		return 1
	}
	return 0
}
