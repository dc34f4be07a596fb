package httpapi

import (
	"database/sql"
	"net/http"

	"aqmap-server/internal/metrics"
)

// NewMux registers the infrastructure routes: health, metrics and static
// files. Feature modules add their own routes afterwards.
func NewMux(db *sql.DB, staticDir string, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
