package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of outbound API requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	DispatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_dispatch_total",
			Help: "Total number of reducer dispatches per store",
		},
		[]string{"store"},
	)

	StaleDiscardCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_stale_discard_total",
			Help: "Fetch responses discarded by the per-scope sequence guard",
		},
		[]string{"store"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DispatchCounter)
	prometheus.MustRegister(StaleDiscardCounter)
}

// ObserveRequest 记录一次出站请求的状态码与耗时
func ObserveRequest(method, endpoint string, status int, start time.Time) {
	RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
