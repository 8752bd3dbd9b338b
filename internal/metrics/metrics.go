package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the analysis metrics. It is safe for concurrent use.
type Collector struct {
	analyses   *prometheus.CounterVec
	scores     prometheus.Histogram
	weaknesses *prometheus.CounterVec
	requests   *prometheus.HistogramVec
}

// NewCollector registers the analysis metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pwcheck",
			Name:      "analyses_total",
			Help:      "Password analyses performed, by strength band.",
		}, []string{"strength"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pwcheck",
			Name:      "score",
			Help:      "Distribution of analysis scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		weaknesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pwcheck",
			Name:      "weaknesses_total",
			Help:      "Weaknesses reported, by kind.",
		}, []string{"kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pwcheck",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	reg.MustRegister(c.analyses, c.scores, c.weaknesses, c.requests)
	return c
}

// RegisterQueue exposes the history queue loss counters.
func RegisterQueue(reg prometheus.Registerer, dropped, failed func() uint64) {
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "pwcheck",
			Name:      "history_dropped_total",
			Help:      "History entries dropped because the queue was full or stopped.",
		}, func() float64 { return float64(dropped()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "pwcheck",
			Name:      "history_failed_total",
			Help:      "History entries whose insert failed.",
		}, func() float64 { return float64(failed()) }),
	)
}

// Observe records one analysis result. Nothing derived from the password itself
// beyond the result is recorded.
func (c *Collector) Observe(res password.Result) {
	c.analyses.WithLabelValues(res.Strength()).Inc()
	c.scores.Observe(float64(res.Score))
	for _, w := range res.Weaknesses {
		c.weaknesses.WithLabelValues(WeaknessKind(w)).Inc()
	}
}

// ObserveRequest records one HTTP request. route must be a mux pattern, never a raw path.
func (c *Collector) ObserveRequest(route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

var weaknessKinds = []struct{ prefix, kind string }{
	{"Password is too short", "too_short"},
	{"Contains only numbers", "numbers_only"},
	{"Contains only letters", "letters_only"},
	{"Contains common patterns", "common_pattern"},
	{"Contains repeated characters", "repeated"},
	{"Contains sequential characters", "sequential"},
	{"Contains keyboard patterns", "keyboard"},
	{"Contains part of personal information", "personal_partial"},
	{"Contains personal information", "personal"},
	{"Contains common weak password", "wordlist"},
}

// WeaknessKind maps a weakness message to a bounded label value. Messages that quote
// personal data collapse to their kind so label cardinality stays fixed.
func WeaknessKind(msg string) string {
	for _, k := range weaknessKinds {
		if strings.HasPrefix(msg, k.prefix) {
			return k.kind
		}
	}
	return "other"
}
