package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackspeech_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hackspeech_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: latencyBuckets,
		},
		[]string{"method", "route"},
	)

	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackspeech_detections_total",
			Help: "Classified messages by category (none for clean text)",
		},
		[]string{"category"},
	)

	ReformulationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackspeech_reformulations_total",
			Help: "Reformulations by source (llm or local)",
		},
		[]string{"source"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hackspeech_llm_call_duration_seconds",
			Help:    "Latency of text generation calls",
			Buckets: latencyBuckets,
		},
		[]string{"outcome"},
	)

	BadgesUnlockedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackspeech_badges_unlocked_total",
			Help: "Badges unlocked",
		},
	)

	ChallengesCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackspeech_challenges_completed_total",
			Help: "Challenges completed",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackspeech_rate_limited_total",
			Help: "Requests rejected by the per-user rate limiter",
		},
		[]string{"route"},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hackspeech_websocket_connections",
			Help: "Open realtime connections",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLLMCall records one text generation call.
func ObserveLLMCall(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	LLMCallDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveDetection counts a classified message. Clean text is counted as "none".
func ObserveDetection(category string) {
	if category == "" {
		category = "none"
	}
	DetectionsTotal.WithLabelValues(category).Inc()
}
