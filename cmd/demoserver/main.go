// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/festivo/festivo/internal/config"
	"github.com/festivo/festivo/internal/demoserver"
	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/replay"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Msg("Starting festivo demo studio")

	library, err := replay.Library(cfg.Demo.ScenarioDir)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error loading scenario library")
		fmt.Fprintf(os.Stderr, "Error loading scenario library: %v\n", err)
		os.Exit(1)
	}
	mainLog.Info().Int("scenarios", len(library)).Str("dir", cfg.Demo.ScenarioDir).Msg("Scenario library loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := demoserver.New(&cfg.Demo, library)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(ctx)
	}()

	// Wait for signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	// Graceful shutdown: fresh context with timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
	}
	mainLog.Info().Msg("Demo studio stopped")
}
