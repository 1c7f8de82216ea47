package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AuthorizationDecisions counts guard outcomes per check.
	AuthorizationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "a11yhub",
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by check and outcome.",
		},
		[]string{"check", "outcome"},
	)

	ResolverLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "a11yhub",
			Name:      "resolver_lookups_total",
			Help:      "Role/permission lookups against storage by outcome.",
		},
		[]string{"outcome"},
	)

	ResolverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "a11yhub",
			Name:      "resolver_lookup_duration_seconds",
			Help:      "Role/permission lookup latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "a11yhub",
			Name:      "tokens_issued_total",
			Help:      "Access and refresh credentials minted.",
		},
		[]string{"type"},
	)

	// DeliveryVerifications counts delivery token and domain checks by result.
	DeliveryVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "a11yhub",
			Name:      "delivery_verifications_total",
			Help:      "Delivery token and origin verification results.",
		},
		[]string{"stage", "result"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "a11yhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)
)

var once sync.Once

// Init registers the collectors in the default registry. Safe to call twice.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			AuthorizationDecisions,
			ResolverLookups,
			ResolverDuration,
			TokensIssued,
			DeliveryVerifications,
			HTTPRequests,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
