package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics counts HTTP requests by method, route pattern and status.
type RequestMetrics struct {
	requestCount *prometheus.CounterVec
}

func NewRequestMetrics(reg prometheus.Registerer) (*RequestMetrics, error) {
	m := &RequestMetrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
	}
	if err := reg.Register(m.requestCount); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RequestMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		c.Next()

		// Unmatched paths all go to the front controller; one label keeps
		// the series bounded.
		path := c.FullPath()
		if path == "" {
			path = "frontend"
		}
		m.requestCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
