package httpserver

import (
	"net/http"
	"time"

	"engageflow/internal/platform/config"
)

// New builds an HTTP server with sane defaults for this project. WriteTimeout stays
// zero by default so the server-sent event stream is not cut off.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
