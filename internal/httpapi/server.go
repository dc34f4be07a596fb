package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"aqmap-server/internal/config"
	"aqmap-server/internal/metrics"
)

// NewServer wraps handler with panic recovery, request logging, metrics and
// response compression, outermost first.
func NewServer(cfg config.Config, handler http.Handler, m *metrics.Metrics, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	h := handlers.CompressHandler(handler)
	h = m.WrapHandler(h)
	h = requestLogger(logger, h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
	)(h)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
