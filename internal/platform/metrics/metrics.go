package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics provides observability for the workflow engine and cash ledger.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FiscalReserved    *prometheus.CounterVec
	FiscalLowCapacity *prometheus.CounterVec
	FiscalExhausted   *prometheus.CounterVec
	FiscalRemaining   *prometheus.GaugeVec
	SessionsOpened    prometheus.Counter
	SessionsClosed    prometheus.Counter
	SessionVariance   prometheus.Histogram
	InvoicesPaid      *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FiscalReserved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onda_fiscal_numbers_reserved_total",
			Help: "Fiscal document numbers issued, by type code",
		}, []string{"type_code"}),
		FiscalLowCapacity: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onda_fiscal_low_capacity_warnings_total",
			Help: "Reservations served from a range close to exhaustion",
		}, []string{"type_code"}),
		FiscalExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onda_fiscal_exhausted_total",
			Help: "Reservations rejected because no usable range exists",
		}, []string{"type_code"}),
		FiscalRemaining: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onda_fiscal_remaining_units",
			Help: "Units left in the range used by the last reservation",
		}, []string{"type_code", "series"}),
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "onda_cash_sessions_opened_total",
			Help: "Cash sessions opened",
		}),
		SessionsClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "onda_cash_sessions_closed_total",
			Help: "Cash sessions closed",
		}),
		SessionVariance: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "onda_cash_session_variance",
			Help:    "Declared minus expected amount at close",
			Buckets: []float64{-1000, -100, -10, -1, 0, 1, 10, 100, 1000},
		}),
		InvoicesPaid: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onda_invoices_paid_total",
			Help: "Invoices paid, by payment method",
		}, []string{"method"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onda_state_transitions_total",
			Help: "Applied lifecycle transitions",
		}, []string{"kind", "to"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onda_workflow_operation_duration_seconds",
			Help:    "Duration of coordinated workflow operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "outcome"}),
	}
}

// ObserveReservation records an issued fiscal number.
func (m *Metrics) ObserveReservation(typeCode, series string, remaining int64, low bool) {
	if m == nil {
		return
	}
	m.FiscalReserved.WithLabelValues(typeCode).Inc()
	m.FiscalRemaining.WithLabelValues(typeCode, series).Set(float64(remaining))
	if low {
		m.FiscalLowCapacity.WithLabelValues(typeCode).Inc()
	}
}

// IncrementExhausted records a reservation that found no usable range.
func (m *Metrics) IncrementExhausted(typeCode string) {
	if m == nil {
		return
	}
	m.FiscalExhausted.WithLabelValues(typeCode).Inc()
}

// IncrementSessionOpened records an opened cash session.
func (m *Metrics) IncrementSessionOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
}

// ObserveSessionClosed records a closed session and its variance.
func (m *Metrics) ObserveSessionClosed(variance decimal.Decimal) {
	if m == nil {
		return
	}
	m.SessionsClosed.Inc()
	m.SessionVariance.Observe(variance.InexactFloat64())
}

// IncrementInvoicePaid records a paid invoice.
func (m *Metrics) IncrementInvoicePaid(method string) {
	if m == nil {
		return
	}
	m.InvoicesPaid.WithLabelValues(method).Inc()
}

// IncrementTransition records an applied transition.
func (m *Metrics) IncrementTransition(kind, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, to).Inc()
}

// ObserveOperation records the duration of a workflow operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
