package daemon

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Deps contains the Manager's injected dependencies.
type Deps struct {
	// Logger is the structured logger for the daemon.
	Logger zerolog.Logger

	// APIHandler serves the main API.
	APIHandler http.Handler

	// MetricsAddr and MetricsHandler configure the Prometheus listener.
	// Both empty/nil disables the metrics server.
	MetricsAddr    string
	MetricsHandler http.Handler
}

// Validate checks that the required dependencies are present.
func (d *Deps) Validate() error {
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
