package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity module. Tracks
// registration/login outcomes and the credential-path durations.
type Metrics struct {
	Registrations    prometheus.Counter
	RegisterFailures *prometheus.CounterVec
	Logins           prometheus.Counter
	LoginFailures    prometheus.Counter
	RegisterDuration prometheus.Histogram
	LoginDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all identity module metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_registrations_total",
			Help: "Total number of identities registered",
		}),
		RegisterFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_registration_failures_total",
			Help: "Registration failures by reason",
		}, []string{"reason"}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_logins_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgate_register_duration_seconds",
			Help:    "Duration of Register operations (hashing dominates)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgate_login_duration_seconds",
			Help:    "Duration of Authenticate operations (hashing dominates)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementRegistrations records a successful registration.
func (m *Metrics) IncrementRegistrations() {
	m.Registrations.Inc()
}

// IncrementRegisterFailure records a failed registration by reason.
func (m *Metrics) IncrementRegisterFailure(reason string) {
	m.RegisterFailures.WithLabelValues(reason).Inc()
}

// IncrementLogins records a successful login.
func (m *Metrics) IncrementLogins() {
	m.Logins.Inc()
}

// IncrementLoginFailure records a rejected login attempt.
func (m *Metrics) IncrementLoginFailure() {
	m.LoginFailures.Inc()
}

// ObserveRegister records the duration of a Register operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveLogin records the duration of an Authenticate operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
