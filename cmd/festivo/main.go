// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/festivo/festivo/internal/cli"
	"github.com/festivo/festivo/internal/logger"
)

func main() {
	defer logger.CloseGlobal()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
