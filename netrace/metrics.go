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

package netrace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/netrace/netrace/common"
)

var metricLabels = []string{"benchmark", "session"}

var (
	activePacketsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "context",
		Name:      "active_packets",
		Help:      "Packets registered with the dependency tracker but not yet cleared.",
	}, metricLabels)

	clearedDepthGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "context",
		Name:      "cleared_list_depth",
		Help:      "Packets queued in the cleared list awaiting drain.",
	}, metricLabels)

	latestCycleGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: common.App,
		Subsystem: "context",
		Name:      "latest_read_cycle",
		Help:      "Cycle stamp of the most recently read packet.",
	}, metricLabels)

	packetsReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.App,
		Subsystem: "context",
		Name:      "packets_read_total",
		Help:      "Packets decoded from the trace stream.",
	}, metricLabels)

	regionSeeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.App,
		Subsystem: "context",
		Name:      "region_seeks_total",
		Help:      "Region-seek operations performed.",
	}, metricLabels)

	readAheadRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.App,
		Subsystem: "context",
		Name:      "read_ahead_rounds_total",
		Help:      "Packets pulled in by the self-throttling read-ahead pump.",
	}, metricLabels)
)

// contextMetrics caches the label-bound collectors for one Context so hot
// paths (ReadPacket, ClearAndFree) never re-resolve label values.
type contextMetrics struct {
	activePackets   prometheus.Gauge
	clearedDepth    prometheus.Gauge
	latestCycle     prometheus.Gauge
	packetsRead     prometheus.Counter
	regionSeeks     prometheus.Counter
	readAheadRounds prometheus.Counter
}

func newContextMetrics(benchmark, session string) *contextMetrics {
	labels := prometheus.Labels{"benchmark": benchmark, "session": session}
	return &contextMetrics{
		activePackets:   activePacketsGauge.With(labels),
		clearedDepth:    clearedDepthGauge.With(labels),
		latestCycle:     latestCycleGauge.With(labels),
		packetsRead:     packetsReadTotal.With(labels),
		regionSeeks:     regionSeeksTotal.With(labels),
		readAheadRounds: readAheadRoundsTotal.With(labels),
	}
}
