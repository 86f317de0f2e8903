// Package metrics exposes process-wide Prometheus counters/histograms for
// search statistics and scheduler timing (SPEC_FULL.md §4.7, "DOMAIN
// STACK"). internal/httpapi feeds the search counters from each solve's
// statistics and registers every collector; internal/search and
// internal/milp do not import this package. SchedulerDuration and
// MilpNodesExplored are registered but nothing observes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NodesGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itags_nodes_generated_total",
		Help: "Allocation search nodes generated.",
	})
	NodesEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itags_nodes_evaluated_total",
		Help: "Allocation search nodes evaluated against the scheduler.",
	})
	NodesExpanded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itags_nodes_expanded_total",
		Help: "Allocation search nodes expanded into children.",
	})
	NodesPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itags_nodes_pruned_total",
		Help: "Allocation search nodes pruned before scheduling.",
	})
	NodesDeadend = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itags_nodes_deadend_total",
		Help: "Allocation search nodes marked dead-end by a scheduler failure.",
	})

	SchedulerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "itags_scheduler_bucket_seconds",
		Help:    "Wall-clock time spent per timekeeper bucket.",
		Buckets: prometheus.DefBuckets,
	}, []string{"bucket"})

	MilpNodesExplored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itags_milp_nodes_explored_total",
		Help: "Branch-and-bound nodes explored across all scheduler solves.",
	})
)

// Registry bundles every collector this package defines for a single
// prometheus.Registerer.MustRegister call at process start.
func Registry() []prometheus.Collector {
	return []prometheus.Collector{
		NodesGenerated, NodesEvaluated, NodesExpanded, NodesPruned, NodesDeadend,
		SchedulerDuration, MilpNodesExplored,
	}
}
