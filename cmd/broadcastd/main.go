package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/broadcast"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/config"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/node"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("broadcastd", os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "broadcastd:", err)
		os.Exit(2)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "broadcastd:", err)
		os.Exit(2)
	}
	defer logger.Sync()

	telemetry.SetBuildInfo("broadcastd", version)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MetricsAddr != "" {
		telemetry.ServeMetrics(ctx, cfg.MetricsAddr, logger)
	}

	n := node.New[int64](cfg, broadcast.NewReplica(), os.Stdout, logger)
	if err := n.Run(os.Stdin); err != nil {
		n.Logger().Fatal("node stopped", zap.Error(err))
	}
}
