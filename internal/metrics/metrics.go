// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors. Every method is safe on
// a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stencil"

type Metrics struct {
	registry *prometheus.Registry

	validations    *prometheus.CounterVec
	issues         *prometheus.CounterVec
	catalogFetches *prometheus.CounterVec
	catalogActions prometheus.Gauge
	githubRequests *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_validations_total",
			Help:      "Templates validated, by outcome.",
		}, []string{"result"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_issues_total",
			Help:      "Validation issues reported, by severity.",
		}, []string{"severity"}),
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_repository_fetches_total",
			Help:      "Action repository fetches, by status.",
		}, []string{"status"}),
		catalogActions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_actions",
			Help:      "Actions in the merged catalog.",
		}),
		githubRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "GitHub API calls, by operation and status code.",
		}, []string{"operation", "status_code"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.validations, m.issues, m.catalogFetches, m.catalogActions,
		m.githubRequests, m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Validation records one validation run.
func (m *Metrics) Validation(errors, warnings, infos int) {
	if m == nil {
		return
	}
	result := "ok"
	if errors > 0 {
		result = "errors"
	}
	m.validations.WithLabelValues(result).Inc()
	m.issues.WithLabelValues("error").Add(float64(errors))
	m.issues.WithLabelValues("warning").Add(float64(warnings))
	m.issues.WithLabelValues("info").Add(float64(infos))
}

// CatalogFetch records one repository fetch.
func (m *Metrics) CatalogFetch(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.catalogFetches.WithLabelValues(status).Inc()
}

// CatalogSize records the merged catalog size.
func (m *Metrics) CatalogSize(n int) {
	if m == nil {
		return
	}
	m.catalogActions.Set(float64(n))
}

// GitHubRequest records one GitHub API call. A zero status means the
// request never got a response.
func (m *Metrics) GitHubRequest(operation string, status int) {
	if m == nil {
		return
	}
	m.githubRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
