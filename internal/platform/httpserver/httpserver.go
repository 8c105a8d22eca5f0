package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server with timeouts suited to the approval endpoints.
// WriteTimeout leaves headroom for the synchronous provisioning call an
// approval can trigger.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      65 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
