package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "propertyhub"

// Metrics holds the listing lifecycle metric instruments.
type Metrics struct {
	ListingsCreated  metric.Int64Counter
	ListingsApproved metric.Int64Counter
	ListingsRejected metric.Int64Counter
	QuotaDenied      metric.Int64Counter
	SlotsCompensated metric.Int64Counter
	ReserveDuration  metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ListingsCreated, err = meter.Int64Counter("propertyhub.listings.created",
		metric.WithDescription("Number of listings created"))
	if err != nil {
		return nil, err
	}

	m.ListingsApproved, err = meter.Int64Counter("propertyhub.listings.approved",
		metric.WithDescription("Number of listings approved by moderation"))
	if err != nil {
		return nil, err
	}

	m.ListingsRejected, err = meter.Int64Counter("propertyhub.listings.rejected",
		metric.WithDescription("Number of listings rejected by moderation"))
	if err != nil {
		return nil, err
	}

	m.QuotaDenied, err = meter.Int64Counter("propertyhub.quota.denied",
		metric.WithDescription("Number of listing creations denied by quota"))
	if err != nil {
		return nil, err
	}

	m.SlotsCompensated, err = meter.Int64Counter("propertyhub.slots.compensated",
		metric.WithDescription("Number of leaked slot reservations compensated"))
	if err != nil {
		return nil, err
	}

	m.ReserveDuration, err = meter.Float64Histogram("propertyhub.reserve.duration_seconds",
		metric.WithDescription("Slot reservation duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
