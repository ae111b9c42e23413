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
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/netrace/netrace/common"
	"github.com/netrace/netrace/confengine"
	"github.com/netrace/netrace/internal/rescue"
	"github.com/netrace/netrace/internal/sigs"
	"github.com/netrace/netrace/logger"
	"github.com/netrace/netrace/server"
)

var serveConfigPath string

// replayPoolConfig is the `replay` section of the serve config: the set of
// trace files the daemon opens and walks at startup, one per worker
// goroutine out of a common.Concurrency()-sized pool.
type replayPoolConfig struct {
	Traces       []string `config:"traces"`
	Region       int      `config:"region"`
	SelfThrottle bool     `config:"selfThrottle"`
	NoDeps       bool     `config:"noDeps"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an admin/metrics HTTP server alongside trace replay workers",
	Run: func(cmd *cobra.Command, args []string) {
		defer rescue.HandleCrash()

		cfg, err := confengine.LoadConfigPath(serveConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		var logOpt logger.Options
		if err := cfg.UnpackChild("logger", &logOpt); err == nil {
			logger.SetOptions(logOpt)
		}

		info := common.GetBuildInfo()
		logger.Infof("netrace %s (%s, built %s) starting, pid=%d, started=%d", info.Version, info.GitHash, info.Time, os.Getpid(), common.Started())

		srv, err := server.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
			os.Exit(1)
		}
		if srv == nil {
			logger.Infof("server disabled in config, exiting")
			return
		}

		srv.RegisterGetRoute("/metrics", promhttp.Handler().ServeHTTP)
		srv.RegisterGetRoute("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv.RegisterPostRoute("/-/logger", func(w http.ResponseWriter, r *http.Request) {
			logger.SetLoggerLevel(r.FormValue("level"))
			w.Write([]byte(`{"status": "success"}`))
		})
		srv.RegisterPostRoute("/-/reload", func(w http.ResponseWriter, r *http.Request) {
			if err := sigs.SelfReload(); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(err.Error()))
			}
		})

		if cfg.Has("replay") {
			var replayPool replayPoolConfig
			if err := cfg.UnpackChild("replay", &replayPool); err != nil {
				fmt.Fprintf(os.Stderr, "failed to load replay config: %v\n", err)
				os.Exit(1)
			}
			go runReplayPool(replayPool)
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
				os.Exit(1)
			}
		}()

		for {
			select {
			case <-sigs.Terminate():
				logger.Infof("received termination signal, shutting down")
				return
			case <-sigs.Reload():
				logger.Infof("received reload signal, refreshing log level")
				if cfg, err := confengine.LoadConfigPath(serveConfigPath); err == nil {
					var logOpt logger.Options
					if err := cfg.UnpackChild("logger", &logOpt); err == nil {
						logger.SetOptions(logOpt)
					}
				}
			}
		}
	},
	Example: "# netrace serve --config netrace.yaml",
}

// runReplayPool walks every configured trace file on its own goroutine,
// bounded by a common.Concurrency()-sized worker pool. Each worker recovers
// its own panics independently so one bad trace can't take the admin
// server down with it.
func runReplayPool(pool replayPoolConfig) {
	if len(pool.Traces) == 0 {
		return
	}

	conf := replayConfig{
		Region:       pool.Region,
		SelfThrottle: pool.SelfThrottle,
		NoDeps:       pool.NoDeps,
		Quiet:        true,
	}

	jobs := make(chan string, len(pool.Traces))
	for _, path := range pool.Traces {
		jobs <- path
	}
	close(jobs)

	workers := common.Concurrency()
	if workers > len(pool.Traces) {
		workers = len(pool.Traces)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer rescue.HandleCrash()
			for path := range jobs {
				res, err := replayTrace(path, conf)
				if err != nil {
					logger.Errorf("replay of %s failed: %v", path, err)
					continue
				}
				logger.Infof("replay of %s complete: sent=%d cleared=%d active=%d latest_cycle=%d", path, res.Sent, res.Cleared, res.Active, res.LatestCycle)
			}
		}()
	}
	wg.Wait()
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "netrace.yaml", "Configuration file path")
	rootCmd.AddCommand(serveCmd)
}
