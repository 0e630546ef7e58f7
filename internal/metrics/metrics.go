// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdu_requests_total",
			Help: "Total number of HTTP requests sent, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	redirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webdu_redirects_total",
			Help: "Total number of redirect hops followed.",
		},
	)

	nodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdu_nodes_total",
			Help: "Total number of listing nodes visited, labeled by kind (directory or file).",
		},
		[]string{"kind"},
	)

	branchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdu_branch_failures_total",
			Help: "Total number of branches that contributed zero because of an error, labeled by error kind.",
		},
		[]string{"kind"},
	)

	bytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdu_bytes_total",
			Help: "Total number of bytes declared by file HEAD responses, labeled by site.",
		},
		[]string{"site"},
	)

	inFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webdu_in_flight_requests",
			Help: "Number of HTTP exchanges currently in progress.",
		},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SanitizeSite extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveRequest counts one request. A zero code means the transport failed
// before a response arrived.
func ObserveRequest(method string, code int) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	requestsTotal.WithLabelValues(method, label).Inc()
}

// ObserveRedirect counts one followed redirect hop.
func ObserveRedirect() {
	redirectsTotal.Inc()
}

// ObserveNode counts a visited directory or file.
func ObserveNode(dir bool) {
	kind := "file"
	if dir {
		kind = "directory"
	}
	nodesTotal.WithLabelValues(kind).Inc()
}

// ObserveBranchFailure counts a branch whose failure was absorbed.
func ObserveBranchFailure(kind string) {
	branchFailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveFileSize adds a file's declared size to the per-site byte counter.
func ObserveFileSize(site string, size uint64) {
	bytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(size))
}

// IncInFlight marks the start of an HTTP exchange.
func IncInFlight() {
	inFlightRequests.Inc()
}

// DecInFlight marks the end of an HTTP exchange.
func DecInFlight() {
	inFlightRequests.Dec()
}
