package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/shopspring/decimal"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	Candles      *prometheus.CounterVec
	Submitted    *prometheus.CounterVec
	Rejected     *prometheus.CounterVec
	Transactions *prometheus.CounterVec
	Equity       prometheus.Gauge

	registry *prometheus.Registry
}

// New registers the engine collectors on registry, or on a fresh one when nil.
func New(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		Candles: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "argo_candles_total", Help: "Candles promoted into the market context"},
			[]string{"asset"},
		),
		Submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "argo_orders_submitted_total", Help: "Orders accepted by a broker"},
			[]string{"exchange", "action"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "argo_orders_rejected_total", Help: "Orders rejected by a broker"},
			[]string{"exchange"},
		),
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "argo_transactions_total", Help: "Fills booked by a broker"},
			[]string{"exchange"},
		),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{Name: "argo_equity", Help: "Latest equity across brokers"}),

		registry: registry,
	}

	for _, c := range []prometheus.Collector{m.Candles, m.Submitted, m.Rejected, m.Transactions, m.Equity} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

func (m *Metrics) ObserveCandles(candles []types.Candle) {
	if m == nil {
		return
	}

	for _, c := range candles {
		m.Candles.WithLabelValues(c.Asset.String()).Inc()
	}
}

// ObserveOrder counts an order the order manager handed to a broker.
// Rejections are counted when the broker reports them.
func (m *Metrics) ObserveOrder(order types.Order) {
	if m == nil || order.Status == types.OrderStatusPending || order.Status == types.OrderStatusRejected {
		return
	}

	m.Submitted.WithLabelValues(order.Asset.Exchange, string(order.Action)).Inc()
}

func (m *Metrics) ObserveRejected(order types.Order) {
	if m == nil {
		return
	}

	m.Rejected.WithLabelValues(order.Asset.Exchange).Inc()
}

func (m *Metrics) OnTransaction(tx types.Transaction) {
	if m == nil {
		return
	}

	m.Transactions.WithLabelValues(tx.Asset.Exchange).Inc()
}

func (m *Metrics) SetEquity(equity decimal.Decimal) {
	if m == nil {
		return
	}

	m.Equity.Set(equity.InexactFloat64())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr in the background. Close the returned server to stop it.
func (m *Metrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()

	return srv
}
