// Package httpserver builds the HTTP server with sane defaults.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Shutdown drains the server, giving in-flight requests up to the grace
// period to finish.
func Shutdown(srv *http.Server, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(ctx)
}
