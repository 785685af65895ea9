// Package metrics exposes the bot's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Command Metrics
	CommandsExecutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pancymod_commands_executed_total",
		Help: "The total number of slash commands dispatched",
	}, []string{"command"})
	CommandErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pancymod_command_errors_total",
		Help: "The total number of commands that failed or panicked",
	}, []string{"command"})
	CommandCooldownHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pancymod_command_cooldown_hits_total",
		Help: "The total number of invocations rejected by a cooldown",
	})

	// Moderation Metrics
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pancymod_moderation_actions_total",
		Help: "The total number of moderation actions applied",
	}, []string{"action"})
	FilterHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pancymod_filter_hits_total",
		Help: "The total number of messages flagged by the profanity filter",
	})
	ModlogDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pancymod_modlog_duplicates_total",
		Help: "The total number of log posts suppressed by the dedup window",
	})

	// Store Metrics
	StoreWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pancymod_store_writes_total",
		Help: "The total number of full document writes",
	})
	StoreWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pancymod_store_write_errors_total",
		Help: "The total number of failed document writes",
	})
	StoreWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pancymod_store_write_latency_seconds",
		Help:    "Latency of full document writes",
		Buckets: prometheus.DefBuckets,
	})
)
