package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Callback outcomes.
const (
	OutcomeExistingUser = "existing_user"
	OutcomeNewUser      = "new_user"
	OutcomeError        = "error"
)

// Metrics tracks the login flow. Each instance owns its registry so that tests and multiple
// servers in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	LoginRequests     *prometheus.CounterVec
	CallbackOutcomes  *prometheus.CounterVec
	CallbackDuration  prometheus.Histogram
	TokenExchanges    *prometheus.CounterVec
	AccountsConfirmed prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		LoginRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zklogin_login_requests_total",
			Help: "Total number of zkLogin authorization requests built",
		}, []string{"provider"}),
		CallbackOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zklogin_callbacks_total",
			Help: "Total number of provider callbacks by outcome",
		}, []string{"outcome"}),
		CallbackDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zklogin_callback_duration_seconds",
			Help:    "Duration of callback handling (code exchange, salt lookup and login)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		TokenExchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zklogin_token_exchanges_total",
			Help: "Total number of authorization code exchanges served by the proxy",
		}, []string{"provider", "result"}),
		AccountsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "zklogin_accounts_confirmed_total",
			Help: "Total number of new accounts confirmed",
		}),
	}
}

func (m *Metrics) IncrementLoginRequest(provider string) {
	m.LoginRequests.WithLabelValues(provider).Inc()
}

// ObserveCallback records the outcome and duration of a callback.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCallback(outcome string, start time.Time) {
	m.CallbackOutcomes.WithLabelValues(outcome).Inc()
	m.CallbackDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementTokenExchange(provider string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.TokenExchanges.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) IncrementAccountConfirmed() {
	m.AccountsConfirmed.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
