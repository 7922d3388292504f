package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 抓取过程的 Prometheus 指标,所有方法都允许 nil 接收者
type Metrics struct {
	Registry            *prometheus.Registry
	SessionsTotal       *prometheus.CounterVec
	LaunchFailuresTotal *prometheus.CounterVec
	ItemsTotal          *prometheus.CounterVec
	ReviewsTotal        prometheus.Counter
	ReviewFetchDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	sessions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_browser_sessions_total",
			Help: "Browser sessions launched, by driver and mode.",
		},
		[]string{"driver", "mode"},
	)
	launchFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_browser_launch_failures_total",
			Help: "Browser sessions that failed to launch, by driver.",
		},
		[]string{"driver"},
	)
	items := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_listing_items_total",
			Help: "Listing items processed, by outcome.",
		},
		[]string{"outcome"},
	)
	reviews := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_reviews_collected_total",
			Help: "Distinct reviews collected across all products.",
		},
	)
	reviewDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_review_fetch_duration_seconds",
			Help:    "Time spent fetching reviews for one product.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		},
	)

	registry.MustRegister(sessions, launchFailures, items, reviews, reviewDuration)

	return &Metrics{
		Registry:            registry,
		SessionsTotal:       sessions,
		LaunchFailuresTotal: launchFailures,
		ItemsTotal:          items,
		ReviewsTotal:        reviews,
		ReviewFetchDuration: reviewDuration,
	}
}

func (m *Metrics) IncSession(driver string, headless bool) {
	if m == nil {
		return
	}
	mode := "visible"
	if headless {
		mode = "headless"
	}
	m.SessionsTotal.WithLabelValues(driver, mode).Inc()
}

func (m *Metrics) IncLaunchFailure(driver string) {
	if m == nil {
		return
	}
	m.LaunchFailuresTotal.WithLabelValues(driver).Inc()
}

func (m *Metrics) IncItem(outcome string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReviewsTotal.Add(float64(n))
}

func (m *Metrics) ObserveReviewFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.ReviewFetchDuration.Observe(d.Seconds())
}
