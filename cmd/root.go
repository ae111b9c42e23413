// Copyright 2025 The netrace Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the netrace command-line tool: inspecting,
// replaying, and generating network-on-chip trace files.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/netrace/netrace/common"
	"github.com/netrace/netrace/logger"
)

var (
	version   = common.Version
	gitHash   string
	buildTime string
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:     common.App,
	Short:   "Inspect, replay, and generate network-on-chip trace files",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetOptions(logger.Options{Stdout: true, Level: logLevel})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level [debug|info|warn|error]")
}

// Execute runs the configured command tree, exiting the process with
// status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
