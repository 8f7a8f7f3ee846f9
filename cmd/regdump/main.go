// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

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

	if err := app.RunRegisterDump(logger); err != nil {
		logger.WithError(err).Fatal("register dump failed")
	}
}
