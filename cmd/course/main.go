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
	cfg := config.Get()
	logger := app.NewLogger(cfg.LogLevel)

	if cfg.GPSSerialPort == "" {
		logger.Fatal("GPS_SERIAL_PORT is required for the course monitor")
	}
	logger.Info("starting navsense course monitor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunCourseMonitor(ctx, logger); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("course monitor exited")
	}
}
