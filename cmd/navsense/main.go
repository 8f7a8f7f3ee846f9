// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/navsense/internal/app"
	"github.com/relabs-tech/navsense/internal/config"
)

func main() {
	configPath := flag.String("config", "./navsense_config.txt", "path to config file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		panic(err)
	}
	logger := app.NewLogger(config.Get().LogLevel)
	logger.Info("starting navsense producer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunProducer(ctx, logger); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("producer exited")
	}
	logger.Info("producer shut down")
}
