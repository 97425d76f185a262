// Package metrics はボットのPrometheusメトリクスを定義します。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nabi_commands_total",
		Help: "Number of slash commands handled, by command and category",
	}, []string{"command", "category"})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nabi_command_duration_seconds",
		Help:    "Time spent handling a slash command",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	ComponentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nabi_components_total",
		Help: "Number of component and modal interactions handled, by command",
	}, []string{"command", "kind"})

	ExternalErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nabi_external_errors_total",
		Help: "Errors returned by external services",
	}, []string{"service"})

	TracksPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nabi_tracks_played_total",
		Help: "Number of tracks that started playing",
	})

	VoiceConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nabi_voice_connections",
		Help: "Number of guilds with an active music voice connection",
	})

	StoreLatency = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nabi_store_ping_microsec",
		Help: "The latency of a document store ping in microseconds",
	})
)

// ObserveCommand はコマンドの実行を記録します。
func ObserveCommand(command, category string, started time.Time) {
	CommandsTotal.WithLabelValues(command, category).Inc()
	CommandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

// ExternalError は外部サービスのエラーを記録します。
func ExternalError(service string) {
	ExternalErrors.WithLabelValues(service).Inc()
}

// MeasureStore は ping の所要時間を記録します。
func MeasureStore(ping func() error) error {
	start := time.Now()
	err := ping()
	if err != nil {
		ExternalError("store")
		return err
	}
	StoreLatency.Set(float64(time.Since(start).Microseconds()))
	return nil
}
