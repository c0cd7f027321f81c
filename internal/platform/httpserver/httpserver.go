package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. Write timeout stays generous
// because password hashing sits on the request path.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
