// Package metrics exposes Prometheus counters for service client calls and
// cookie handling.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records client metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	requests        *prometheus.CounterVec
	cookiesRejected *prometheus.CounterVec
	cookiesStored   prometheus.Counter
}

// New registers the client metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		// requests tracks completed calls by backend and status code
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svcclient_requests_total",
				Help: "Total service calls by transport backend and status code",
			},
			[]string{"transport", "code"},
		),
		// cookiesRejected tracks harvested cookies dropped by validation
		cookiesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svcclient_cookies_rejected_total",
				Help: "Total harvested cookies rejected by validation reason",
			},
			[]string{"reason"},
		),
		cookiesStored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "svcclient_cookies_stored_total",
				Help: "Total harvested cookies merged into a cookie store",
			},
		),
	}
}

// RecordRequest counts a call. A zero code means the call failed before a
// response arrived.
func (c *Collector) RecordRequest(transport string, code int) {
	if c == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	c.requests.WithLabelValues(transport, label).Inc()
}

// RecordCookieRejected counts a dropped cookie.
func (c *Collector) RecordCookieRejected(reason string) {
	if c == nil {
		return
	}
	c.cookiesRejected.WithLabelValues(reason).Inc()
}

// RecordCookiesStored counts cookies handed to the store.
func (c *Collector) RecordCookiesStored(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.cookiesStored.Add(float64(n))
}
