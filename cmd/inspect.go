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

package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/netrace/netrace/netrace"
)

var inspectJSON bool

type inspectRegion struct {
	Index      int    `json:"index"`
	SeekOffset uint64 `json:"seekOffset"`
	Cycles     uint64 `json:"cycles"`
	Packets    uint64 `json:"packets"`
}

type inspectReport struct {
	Benchmark   string          `json:"benchmark"`
	Version     float32         `json:"version"`
	NodeCount   uint8           `json:"nodeCount"`
	Cycles      uint64          `json:"cycles"`
	Packets     uint64          `json:"packets"`
	NotesLength uint32          `json:"notesLength"`
	Fingerprint string          `json:"fingerprint"`
	Regions     []inspectRegion `json:"regions"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print a trace file's header and region table",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, err := netrace.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open trace file: %v\n", err)
			os.Exit(1)
		}
		defer ctx.Close()

		h := ctx.Header()
		report := inspectReport{
			Benchmark:   h.Benchmark,
			Version:     h.Version,
			NodeCount:   h.NodeCount,
			Cycles:      h.Cycles,
			Packets:     h.Packets,
			NotesLength: h.NotesLength,
			Fingerprint: fmt.Sprintf("%016x", h.Fingerprint()),
		}
		for i, r := range h.Regions {
			report.Regions = append(report.Regions, inspectRegion{
				Index:      i,
				SeekOffset: r.SeekOffset,
				Cycles:     r.Cycles,
				Packets:    r.Packets,
			})
		}

		if inspectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Printf("benchmark:    %s\n", report.Benchmark)
		fmt.Printf("version:      %v\n", report.Version)
		fmt.Printf("nodes:        %d\n", report.NodeCount)
		fmt.Printf("cycles:       %d\n", report.Cycles)
		fmt.Printf("packets:      %d\n", report.Packets)
		fmt.Printf("notes bytes:  %d\n", report.NotesLength)
		fmt.Printf("fingerprint:  %s\n", report.Fingerprint)
		fmt.Printf("regions:      %d\n", len(report.Regions))
		for _, r := range report.Regions {
			fmt.Printf("  [%d] offset=%d cycles=%d packets=%d\n", r.Index, r.SeekOffset, r.Cycles, r.Packets)
		}
	},
	Example: "# netrace inspect trace.tra --json",
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(inspectCmd)
}
