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

	"github.com/spf13/cobra"

	"github.com/netrace/netrace/logger"
	"github.com/netrace/netrace/netrace"
)

type replayConfig struct {
	Region       int
	SelfThrottle bool
	NoDeps       bool
	Quiet        bool
}

var replayConf replayConfig

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Walk a trace file in dependency order, reporting cleared packets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReplay(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
			os.Exit(1)
		}
	},
	Example: "# netrace replay trace.tra --self-throttle --region 2",
}

// replayResult summarizes one completed walk of a trace file.
type replayResult struct {
	Sent, Cleared int
	Active        uint64
	LatestCycle   uint64
}

// replayTrace opens path, walks it in dependency order under conf, and
// returns a summary. It is the core shared by the single-file `replay`
// command and the `serve` daemon's per-trace worker goroutines.
func replayTrace(path string, conf replayConfig) (replayResult, error) {
	ctx, err := netrace.Open(path)
	if err != nil {
		return replayResult{}, err
	}
	defer ctx.Close()

	if conf.NoDeps {
		if err := ctx.DisableDependencies(); err != nil {
			return replayResult{}, err
		}
	} else if err := ctx.EnableClearedList(); err != nil {
		return replayResult{}, err
	}

	if conf.SelfThrottle {
		if err := ctx.EnableSelfThrottling(); err != nil {
			return replayResult{}, err
		}
	}

	if conf.Region > 0 {
		if err := ctx.SeekRegion(conf.Region); err != nil {
			return replayResult{}, err
		}
	}

	var ready []*netrace.Packet
	var sent, cleared int

	for {
		p, err := ctx.ReadPacket()
		if err != nil {
			return replayResult{}, err
		}
		if p == nil {
			break
		}
		if conf.NoDeps || ctx.DependenciesCleared(p) {
			ready = append(ready, p)
		}

		for len(ready) > 0 {
			cur := ready[0]
			ready = ready[1:]
			sent++
			if !conf.Quiet {
				logger.Infof("cycle=%d id=%d type=%s %d->%d", cur.Cycle, cur.ID, cur.TypeName(), cur.Src, cur.Dst)
			}
			if !conf.NoDeps {
				if err := ctx.ClearAndFree(cur); err != nil {
					return replayResult{}, err
				}
				for next := ctx.PopCleared(); next != nil; next = ctx.PopCleared() {
					cleared++
					ready = append(ready, next)
				}
			}
		}
	}

	return replayResult{Sent: sent, Cleared: cleared, Active: ctx.ActivePackets(), LatestCycle: ctx.LatestCycle()}, nil
}

func runReplay(path string) error {
	res, err := replayTrace(path, replayConf)
	if err != nil {
		return err
	}

	fmt.Printf("sent=%d cleared=%d active=%d latest_cycle=%d\n", res.Sent, res.Cleared, res.Active, res.LatestCycle)
	return nil
}

func init() {
	replayCmd.Flags().IntVar(&replayConf.Region, "region", 0, "Region index to seek to before replaying")
	replayCmd.Flags().BoolVar(&replayConf.SelfThrottle, "self-throttle", false, "Enable the self-throttling read-ahead pump")
	replayCmd.Flags().BoolVar(&replayConf.NoDeps, "no-deps", false, "Disable dependency tracking entirely")
	replayCmd.Flags().BoolVar(&replayConf.Quiet, "quiet", false, "Suppress per-packet log lines")
	rootCmd.AddCommand(replayCmd)
}
