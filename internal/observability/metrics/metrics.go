package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued or refreshed.",
		},
		[]string{"flow", "result"},
	)

	ProfileSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_profile_syncs_total",
			Help: "Profile synchronisations triggered by identity writes.",
		},
		[]string{"trigger", "result"},
	)
)

// MustRegister registers every collector on reg, labelled with the service
// name. The vectors stay usable without registration, which tests rely on.
func MustRegister(reg prometheus.Registerer, serviceName string) {
	prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, reg).MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthRegistrationsTotal,
		AuthLoginsTotal,
		TokensIssuedTotal,
		ProfileSyncsTotal,
	)
}

func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
