package metrics

import (
	"context"
	"time"

	awspkg "github.com/learnhub/course-checkout/pkg/aws"
	"github.com/prometheus/client_golang/prometheus"
)

// Fulfillment outcomes.
const (
	OutcomeFulfilled   = "fulfilled"
	OutcomeAlreadyPaid = "already_paid"
	OutcomeLostRace    = "lost_race"
	OutcomeNotFound    = "not_found"
	OutcomeFailed      = "payment_failed"
)

// Metrics holds the checkout counters. Counts are exported on /metrics and,
// when a CloudWatch client is enabled, mirrored there. A nil *Metrics is a no-op.
type Metrics struct {
	ordersCreated      *prometheus.CounterVec
	signatureRejected  *prometheus.CounterVec
	fulfillments       *prometheus.CounterVec
	enrollmentFailures prometheus.Counter

	cloudwatch *awspkg.MetricsClient
}

func New(reg prometheus.Registerer, cw *awspkg.MetricsClient) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_orders_created_total",
			Help: "Orders created by checkout, by payment provider.",
		}, []string{"provider"}),
		signatureRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_signature_rejected_total",
			Help: "Gateway confirmations rejected by signature verification.",
		}, []string{"provider"}),
		fulfillments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_total",
			Help: "Fulfillment invocations by outcome.",
		}, []string{"outcome"}),
		enrollmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enrollment_grant_failures_total",
			Help: "Enrollment grants that failed during fulfillment.",
		}),
		cloudwatch: cw,
	}
	reg.MustRegister(m.ordersCreated, m.signatureRejected, m.fulfillments, m.enrollmentFailures)
	return m
}

func (m *Metrics) OrderCreated(provider string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(provider).Inc()
	m.mirror(awspkg.MetricOrdersCreated, map[string]string{"Provider": provider})
}

func (m *Metrics) SignatureRejected(provider string) {
	if m == nil {
		return
	}
	m.signatureRejected.WithLabelValues(provider).Inc()
	m.mirror(awspkg.MetricSignatureRejected, map[string]string{"Provider": provider})
}

func (m *Metrics) Fulfillment(outcome string) {
	if m == nil {
		return
	}
	m.fulfillments.WithLabelValues(outcome).Inc()
	switch outcome {
	case OutcomeFulfilled:
		m.mirror(awspkg.MetricOrdersPaid, nil)
	case OutcomeFailed:
		m.mirror(awspkg.MetricPaymentFailed, nil)
	}
}

func (m *Metrics) EnrollmentFailed() {
	if m == nil {
		return
	}
	m.enrollmentFailures.Inc()
	m.mirror(awspkg.MetricEnrollmentFailures, nil)
}

func (m *Metrics) mirror(name string, dims map[string]string) {
	if !m.cloudwatch.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.cloudwatch.RecordCount(ctx, name, dims)
	}()
}
