package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the Prometheus scrape handler. All promauto-registered
// metrics are collected automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
