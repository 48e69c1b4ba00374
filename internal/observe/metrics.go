// Package observe provides application-wide observability primitives for
// Troubadour: OpenTelemetry metrics and the Prometheus exporter bridge that
// serves them on /metrics.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Troubadour metrics.
const meterName = "github.com/MrWong99/troubadour"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CommandInvocations counts text commands and panel actions. Use with
	// attribute: attribute.String("command", ...).
	CommandInvocations metric.Int64Counter

	// TracksPlayed counts tracks that started playing.
	TracksPlayed metric.Int64Counter

	// TrackFailures counts tracks that failed to start or died mid-play.
	TrackFailures metric.Int64Counter

	// ResolveFailures counts resolutions that yielded no playable track.
	ResolveFailures metric.Int64Counter

	// ResolveDuration tracks track resolution latency.
	ResolveDuration metric.Float64Histogram

	// ActiveVoiceConnections tracks the number of guilds with a live voice
	// connection.
	ActiveVoiceConnections metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// extraction calls, which routinely take several seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CommandInvocations, err = m.Int64Counter("troubadour.commands",
		metric.WithDescription("Total command invocations by command name."),
	); err != nil {
		return nil, err
	}
	if met.TracksPlayed, err = m.Int64Counter("troubadour.tracks.played",
		metric.WithDescription("Total tracks that started playing."),
	); err != nil {
		return nil, err
	}
	if met.TrackFailures, err = m.Int64Counter("troubadour.tracks.failures",
		metric.WithDescription("Total tracks that failed to start or aborted mid-play."),
	); err != nil {
		return nil, err
	}
	if met.ResolveFailures, err = m.Int64Counter("troubadour.resolve.failures",
		metric.WithDescription("Total resolutions that produced no playable track."),
	); err != nil {
		return nil, err
	}
	if met.ResolveDuration, err = m.Float64Histogram("troubadour.resolve.duration",
		metric.WithDescription("Latency of track resolution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveVoiceConnections, err = m.Int64UpDownCounter("troubadour.voice.connections",
		metric.WithDescription("Number of guilds with a live voice connection."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordCommand records one command invocation.
func (m *Metrics) RecordCommand(ctx context.Context, command string) {
	m.CommandInvocations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("command", command)),
	)
}

// RecordResolve records the outcome and latency of one resolution call.
func (m *Metrics) RecordResolve(ctx context.Context, took time.Duration, failed bool) {
	m.ResolveDuration.Record(ctx, took.Seconds())
	if failed {
		m.ResolveFailures.Add(ctx, 1)
	}
}
