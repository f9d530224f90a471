// Package observe holds the OpenTelemetry instruments of the spawner.
//
// Tests should use NewMetrics with their own metric.MeterProvider; the
// package-level DefaultMetrics uses the global provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all spawner metrics.
const meterName = "github.com/ShaneeexD/SODMurderItemSpawner-sub000"

// Abandon reasons recorded on Abandoned.
const (
	ReasonOwnership = "ownership"
	ReasonLocation  = "location"
	ReasonPlacement = "placement"
	ReasonRejected  = "rejected"
	ReasonCancelled = "cancelled"
)

// Metrics holds the instruments. Safe for concurrent use.
type Metrics struct {
	// Events counts events delivered to the dispatcher.
	Events metric.Int64Counter

	// Firings counts successful firings. Use with attribute:
	//   attribute.String("rule", ...)
	Firings metric.Int64Counter

	// Abandoned counts firings given up after the gate passed. Use with
	// attribute:
	//   attribute.String("reason", ...)
	Abandoned metric.Int64Counter

	// GateMisses counts probability-gate misses.
	GateMisses metric.Int64Counter

	// ScanBatches counts scan steps executed by the scheduler.
	ScanBatches metric.Int64Counter

	// ActiveScans tracks scans in flight.
	ActiveScans metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Events, err = m.Int64Counter("spawner.events",
		metric.WithDescription("Events delivered to the rule dispatcher."),
	); err != nil {
		return nil, err
	}
	if met.Firings, err = m.Int64Counter("spawner.firings",
		metric.WithDescription("Successful rule firings by rule."),
	); err != nil {
		return nil, err
	}
	if met.Abandoned, err = m.Int64Counter("spawner.abandoned",
		metric.WithDescription("Firings abandoned after the probability gate, by reason."),
	); err != nil {
		return nil, err
	}
	if met.GateMisses, err = m.Int64Counter("spawner.gate_misses",
		metric.WithDescription("Rule evaluations stopped by the probability gate."),
	); err != nil {
		return nil, err
	}
	if met.ScanBatches, err = m.Int64Counter("spawner.scan.batches",
		metric.WithDescription("Cooperative scan steps executed."),
	); err != nil {
		return nil, err
	}
	if met.ActiveScans, err = m.Int64UpDownCounter("spawner.scans.active",
		metric.WithDescription("City scans in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a Metrics on the global meter provider, created on
// first use.
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

// RecordFiring increments Firings for rule.
func (m *Metrics) RecordFiring(ctx context.Context, rule string) {
	m.Firings.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
}

// RecordAbandoned increments Abandoned for reason.
func (m *Metrics) RecordAbandoned(ctx context.Context, reason string) {
	m.Abandoned.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
