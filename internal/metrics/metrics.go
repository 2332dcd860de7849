// Package metrics exposes Prometheus counters, gauges and histograms for
// every stage of the gas-refund pipeline, partitioned by chain where a
// chain dimension is meaningful.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion (C6)
	IngestionSlicesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "ingestion",
		Name:      "slices_processed_total",
		Help:      "Total time-sliced scan windows processed",
	}, []string{"chain"})

	IngestionSwapsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "ingestion",
		Name:      "swaps_fetched_total",
		Help:      "Total raw swaps fetched from the subgraph",
	}, []string{"chain"})

	IngestionSwapsQualified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "ingestion",
		Name:      "swaps_qualified_total",
		Help:      "Total swaps that survived the qualifier",
	}, []string{"chain"})

	IngestionTransactionsStaged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "ingestion",
		Name:      "transactions_staged_total",
		Help:      "Total IDLE transaction rows staged",
	}, []string{"chain"})

	IngestionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "ingestion",
		Name:      "errors_total",
		Help:      "Total fatal ingestion errors",
	}, []string{"chain"})

	IngestionSliceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gasrefund",
		Subsystem: "ingestion",
		Name:      "slice_duration_seconds",
		Help:      "Time to process one ingestion slice",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"chain"})

	// Budget (C5)
	BudgetCapTripped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "budget",
		Name:      "cap_tripped_total",
		Help:      "Total times a budget cap altered the raw refund amount",
	}, []string{"cap"})

	BudgetGlobalPSPRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gasrefund",
		Subsystem: "budget",
		Name:      "global_psp_remaining",
		Help:      "PSP (in wei) remaining under the yearly global cap",
	})

	// Re-validation (C7)
	RevalidationRowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "revalidation",
		Name:      "rows_processed_total",
		Help:      "Total transaction rows re-classified by the re-validation pass",
	}, []string{"status"})

	RevalidationPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gasrefund",
		Subsystem: "revalidation",
		Name:      "pass_duration_seconds",
		Help:      "Duration of one full re-validation pass",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	RevalidationPagesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "revalidation",
		Name:      "pages_read_total",
		Help:      "Total pages of 1000 rows read during re-validation",
	})

	// Merkle (C8)
	MerkleRootsSealed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "merkle",
		Name:      "roots_sealed_total",
		Help:      "Total (chain,epoch) distributions sealed",
	}, []string{"chain"})

	MerkleLeavesPerRoot = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gasrefund",
		Subsystem: "merkle",
		Name:      "leaves_per_root",
		Help:      "Number of address leaves aggregated per sealed root",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"chain"})

	// Orchestrator (C9)
	OrchestratorChainRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gasrefund",
		Subsystem: "orchestrator",
		Name:      "chain_run_duration_seconds",
		Help:      "Duration of one chain's full C6 pass",
		Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 3600},
	}, []string{"chain"})

	OrchestratorLockWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gasrefund",
		Subsystem: "orchestrator",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting to acquire the per-chain distributed lock",
		Buckets:   []float64{0.001, 0.01, 0.1, 1, 5, 30},
	}, []string{"chain"})

	OrchestratorChainErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "orchestrator",
		Name:      "chain_errors_total",
		Help:      "Total per-chain run failures (do not cancel other chains)",
	}, []string{"chain"})

	// External collaborators
	CollaboratorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "collaborator",
		Name:      "requests_total",
		Help:      "Total requests made to external collaborators",
	}, []string{"collaborator", "status"})

	CollaboratorRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "collaborator",
		Name:      "retries_total",
		Help:      "Total retries issued after a transient collaborator failure",
	}, []string{"collaborator"})

	CollaboratorRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gasrefund",
		Subsystem: "collaborator",
		Name:      "rate_limit_waits_total",
		Help:      "Total times a call was delayed by the outbound rate limiter",
	}, []string{"collaborator"})

	CollaboratorCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gasrefund",
		Subsystem: "collaborator",
		Name:      "circuit_state",
		Help:      "Current circuit breaker state per collaborator (0=closed, 1=open, 2=half-open)",
	}, []string{"collaborator"})
)
