// Package metrics registers the Prometheus counters used across the
// retrieval tiers and the refresh orchestrator. All counters are cheap to
// increment and never block the request path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts fingerprint cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discovery_cache_hits_total",
		Help: "Fingerprint cache hits.",
	})

	// CacheMisses counts cache misses, including slow or failed reads that
	// were demoted to misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discovery_cache_misses_total",
		Help: "Fingerprint cache misses (including demoted slow reads).",
	})

	// TierServed counts retrieval requests answered per tier
	// (cache, store, jit, fallback).
	TierServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_tier_served_total",
		Help: "Retrieval requests answered, by tier.",
	}, []string{"tier"})

	// TierTimeouts counts tier deadline overruns, by tier.
	TierTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_tier_timeouts_total",
		Help: "Tier calls that exceeded their deadline.",
	}, []string{"tier"})

	// UpstreamExhaustion counts retrievals where every tier came up empty.
	UpstreamExhaustion = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discovery_upstream_exhaustion_total",
		Help: "Retrievals that failed because no tier could answer.",
	})

	// AdapterFailures counts adapter-level failures, by source.
	AdapterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_adapter_failures_total",
		Help: "Source adapter failures (network, parse, block).",
	}, []string{"source"})

	// RefreshRuns counts finalized acquisition runs, by outcome.
	RefreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_refresh_runs_total",
		Help: "Finalized scheduled refresh runs, by outcome.",
	}, []string{"outcome"})
)
