/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command logit runs one normalization pass over a user's coding-agent
// logs. Flag handling mirrors the teacher's singleFile command (a handful
// of package-level flags feeding a single-pass run) but stays deliberately
// minimal: full CLI surface is out of scope (spec.md §1).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/logit-dev/logit/internal/logging"
	"github.com/logit-dev/logit/internal/runconfig"
	"github.com/logit-dev/logit/orchestrate"
)

func main() {
	home, _ := os.UserHomeDir()

	homeDir := flag.String("home", home, "home directory to search for adapter log sources")
	outputDir := flag.String("out", "./logit-out", "output directory for emitted artifacts")
	historyFile := flag.String("history", "", "shell history file used for discovery prioritization (optional)")
	failFast := flag.Bool("fail-fast", false, "abort the run on the first unreadable source path")
	registryOverride := flag.String("registry-override", "", "path to a YAML registry override file (optional)")
	verbose := flag.Bool("verbose", false, "log INFO-level progress to stderr")
	flag.Parse()

	level := logging.WARN
	if *verbose {
		level = logging.INFO
	}
	logger := logging.New(level, os.Stderr)

	plan := runconfig.DefaultPlan()
	plan.FailFast = *failFast
	plan.RegistryOverridePath = *registryOverride

	if *historyFile == "" && home != "" {
		*historyFile = filepath.Join(home, ".zsh_history")
	}

	result, err := orchestrate.Run(*homeDir, *outputDir, *historyFile, plan, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logit: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("logit: run %s emitted %d events (%d duplicates collapsed, %d warnings) to %s\n",
		result.RunID, len(result.Events), result.Stats.Counts.DuplicateRecords, result.Stats.Counts.Warnings, *outputDir)
	if len(result.ParityMismatches) > 0 {
		fmt.Fprintf(os.Stderr, "logit: tabular parity check found %d mismatch(es)\n", len(result.ParityMismatches))
	}
}
