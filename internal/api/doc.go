// Package api hosts the optional operator HTTP endpoint that runs next to a
// crawl. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /status for the run id and elapsed time of the current crawl.
package api
