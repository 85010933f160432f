package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"geometry-relay/internal/models"
)

// Metrics holds all Prometheus metrics for the relay
type Metrics struct {
	snapshotIngests  prometheus.Counter
	snapshotFetches  *prometheus.CounterVec
	snapshotSize     prometheus.Histogram
	commandsEnqueued *prometheus.CounterVec
	commandsDequeued *prometheus.CounterVec
	commandsRejected prometheus.Counter
	pendingCommands  prometheus.Gauge
	snapshotExports  *prometheus.CounterVec
}

// NewMetrics creates the relay metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		snapshotIngests: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_snapshot_ingests_total",
				Help: "Total number of ingested geometry snapshots",
			},
		),
		snapshotFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_snapshot_fetches_total",
				Help: "Total number of snapshot fetches by outcome",
			},
			[]string{"outcome"},
		),
		snapshotSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_snapshot_primitives",
				Help:    "Number of primitives per ingested snapshot",
				Buckets: []float64{0, 10, 100, 500, 1000, 5000, 10000, 50000},
			},
		),
		commandsEnqueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_commands_enqueued_total",
				Help: "Total number of queued commands by type",
			},
			[]string{"type"},
		),
		commandsDequeued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_command_polls_total",
				Help: "Total number of command polls by outcome",
			},
			[]string{"outcome"},
		),
		commandsRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_commands_rejected_total",
				Help: "Total number of commands rejected by validation",
			},
		),
		pendingCommands: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_commands_pending",
				Help: "Number of commands waiting to be dequeued",
			},
		),
		snapshotExports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_snapshot_exports_total",
				Help: "Total number of snapshot exports by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordIngest counts one ingested snapshot
func (m *Metrics) RecordIngest(primitiveCount int) {
	m.snapshotIngests.Inc()
	m.snapshotSize.Observe(float64(primitiveCount))
}

// RecordFetch counts a fetch outcome: ok, not_modified or not_found
func (m *Metrics) RecordFetch(outcome string) {
	m.snapshotFetches.WithLabelValues(outcome).Inc()
}

// RecordEnqueue counts one queued command. Types the host does not know are counted as "other".
func (m *Metrics) RecordEnqueue(commandType string) {
	m.commandsEnqueued.WithLabelValues(commandTypeLabel(commandType)).Inc()
}

func commandTypeLabel(commandType string) string {
	switch commandType {
	case models.CommandAddBoxes, models.CommandDeleteElements, models.CommandMoveElement, models.CommandSelectElements:
		return commandType
	}
	return "other"
}

// RecordRejected counts one command rejected by validation
func (m *Metrics) RecordRejected() {
	m.commandsRejected.Inc()
}

// RecordDequeue counts a poll outcome: delivered or empty
func (m *Metrics) RecordDequeue(outcome string) {
	m.commandsDequeued.WithLabelValues(outcome).Inc()
}

// SetPendingCommands sets the number of queued commands
func (m *Metrics) SetPendingCommands(count int) {
	m.pendingCommands.Set(float64(count))
}

// RecordExport counts an export outcome
func (m *Metrics) RecordExport(outcome string) {
	m.snapshotExports.WithLabelValues(outcome).Inc()
}
