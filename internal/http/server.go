package httpapi

import (
	"net/http"

	"github.com/tbourn/go-ticket-backend/internal/config"
)

// NewHTTPServer builds the http.Server from the validated configuration,
// so the READ/WRITE/IDLE timeout and header-size knobs actually govern the
// listener.
func NewHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
