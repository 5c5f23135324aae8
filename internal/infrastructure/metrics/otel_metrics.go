package metrics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/debt-service/internal/domain/port"
)

const meterName = "github.com/bibbank/debt-service"

// OTelMetrics implements port.Metrics with OpenTelemetry instruments.
type OTelMetrics struct {
	schedulesBuilt    metric.Int64Counter
	schedulePeriods   metric.Int64Histogram
	paymentsRecorded  metric.Int64Counter
	paymentAmount     metric.Float64Counter
	statusTransitions metric.Int64Counter
	prepayments       metric.Int64Counter
	interestSaved     metric.Float64Counter
}

// NewOTelMetrics creates the debt instruments on provider's meter.
func NewOTelMetrics(provider metric.MeterProvider) (*OTelMetrics, error) {
	meter := provider.Meter(meterName)
	m := &OTelMetrics{}
	var err error

	if m.schedulesBuilt, err = meter.Int64Counter("debt_schedules_built_total",
		metric.WithDescription("Amortization schedules generated")); err != nil {
		return nil, fmt.Errorf("schedules counter: %w", err)
	}
	if m.schedulePeriods, err = meter.Int64Histogram("debt_schedule_periods",
		metric.WithDescription("Number of lines per generated schedule")); err != nil {
		return nil, fmt.Errorf("periods histogram: %w", err)
	}
	if m.paymentsRecorded, err = meter.Int64Counter("debt_payments_recorded_total",
		metric.WithDescription("Payments applied to loans")); err != nil {
		return nil, fmt.Errorf("payments counter: %w", err)
	}
	if m.paymentAmount, err = meter.Float64Counter("debt_payment_amount_total",
		metric.WithDescription("Sum of payment amounts, by currency")); err != nil {
		return nil, fmt.Errorf("payment amount counter: %w", err)
	}
	if m.statusTransitions, err = meter.Int64Counter("debt_status_transitions_total",
		metric.WithDescription("Loan lifecycle transitions, by target status")); err != nil {
		return nil, fmt.Errorf("status counter: %w", err)
	}
	if m.prepayments, err = meter.Int64Counter("debt_prepayments_total",
		metric.WithDescription("Prepayments applied, by mode")); err != nil {
		return nil, fmt.Errorf("prepayments counter: %w", err)
	}
	if m.interestSaved, err = meter.Float64Counter("debt_prepayment_interest_saved_total",
		metric.WithDescription("Interest avoided through prepayments")); err != nil {
		return nil, fmt.Errorf("interest saved counter: %w", err)
	}
	return m, nil
}

func (m *OTelMetrics) ScheduleBuilt(ctx context.Context, mode string, periods int) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.schedulesBuilt.Add(ctx, 1, attrs)
	m.schedulePeriods.Record(ctx, int64(periods), attrs)
}

func (m *OTelMetrics) PaymentRecorded(ctx context.Context, currency string, amount decimal.Decimal) {
	attrs := metric.WithAttributes(attribute.String("currency", currency))
	m.paymentsRecorded.Add(ctx, 1, attrs)
	m.paymentAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

func (m *OTelMetrics) StatusChanged(ctx context.Context, status string) {
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *OTelMetrics) PrepaymentApplied(ctx context.Context, mode string, interestSaved decimal.Decimal) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.prepayments.Add(ctx, 1, attrs)
	if interestSaved.IsPositive() {
		m.interestSaved.Add(ctx, interestSaved.InexactFloat64(), attrs)
	}
}

var _ port.Metrics = (*OTelMetrics)(nil)
