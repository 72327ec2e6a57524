package main

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"craftguard/internal/sim/session"
)

// craftStats counts transactions by outcome for /metrics.
type craftStats struct {
	mu       sync.Mutex
	accepted uint64
	rejected map[string]uint64
}

func newCraftStats() *craftStats {
	return &craftStats{rejected: map[string]uint64{}}
}

func (c *craftStats) WriteCraftAudit(e session.AuditEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.Accepted {
		c.accepted++
	} else {
		c.rejected[e.Reason]++
	}
	return nil
}

func (c *craftStats) snapshot() (uint64, map[string]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]uint64, len(c.rejected))
	for k, v := range c.rejected {
		m[k] = v
	}
	return c.accepted, m
}

func metricsHandler(stats *craftStats, idx runtimeIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		accepted, rejected := stats.snapshot()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP craftguard_crafts_accepted_total Accepted crafting transactions.\n")
		fmt.Fprintf(rw, "# TYPE craftguard_crafts_accepted_total counter\n")
		fmt.Fprintf(rw, "craftguard_crafts_accepted_total %d\n", accepted)

		fmt.Fprintf(rw, "# HELP craftguard_crafts_rejected_total Rejected crafting transactions by reason.\n")
		fmt.Fprintf(rw, "# TYPE craftguard_crafts_rejected_total counter\n")
		reasons := make([]string, 0, len(rejected))
		for k := range rejected {
			reasons = append(reasons, k)
		}
		sort.Strings(reasons)
		for _, k := range reasons {
			fmt.Fprintf(rw, "craftguard_crafts_rejected_total{reason=%q} %d\n", k, rejected[k])
		}

		if idx == nil {
			return
		}
		st := idx.Stats()
		fmt.Fprintf(rw, "# HELP craftguard_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE craftguard_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "craftguard_index_queue_depth %d\n", st.QueueDepth)
		fmt.Fprintf(rw, "# HELP craftguard_index_dropped_total Index writes dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE craftguard_index_dropped_total counter\n")
		fmt.Fprintf(rw, "craftguard_index_dropped_total{kind=%q} %d\n", "craft", st.DropCraftTotal)
		fmt.Fprintf(rw, "craftguard_index_dropped_total{kind=%q} %d\n", "achievement", st.DropAchievementTotal)
	}
}
