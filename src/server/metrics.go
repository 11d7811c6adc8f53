package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photozone_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photozone_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	filterQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photozone_filter_queries_total",
		Help: "Gallery filter evaluations by source",
	}, []string{"source"})

	filterResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "photozone_filter_result_size",
		Help:    "Number of images returned by a filter evaluation",
		Buckets: []float64{0, 1, 4, 8, 16, 32, 64, 128},
	})

	selectionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photozone_selection_toggles_total",
		Help: "Selection toggles by resulting size",
	}, []string{"size"})

	pinOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photozone_pin_outcomes_total",
		Help: "PIN pad outcomes",
	}, []string{"outcome"})

	catalogMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photozone_catalog_mutations_total",
		Help: "Catalog changes by operation",
	}, []string{"operation"})

	reportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photozone_report_duration_seconds",
		Help:    "Comparison report generation time by result",
		Buckets: []float64{0.1, 0.5, 1, 1.5, 2, 5},
	}, []string{"result"})
)

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
