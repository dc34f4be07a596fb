package airquality

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"aqmap-server/internal/modules/airquality/controller"
	"aqmap-server/internal/modules/airquality/markers"
	"aqmap-server/internal/modules/airquality/repository"
	"aqmap-server/internal/modules/airquality/service"
	"aqmap-server/internal/modules/airquality/source"
)

type Options struct {
	Fetcher source.Fetcher
	// Publisher and Observer may be left nil.
	Publisher service.Publisher
	Observer  service.Observer
	Location  *time.Location
	Logger    *slog.Logger
}

// RegisterFeature wires the air quality module onto mux and returns its
// service so the caller can run the startup refresh.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, opts Options) *service.Service {
	svc := service.NewService(service.Deps{
		Fetcher:    opts.Fetcher,
		Repository: repository.NewRepository(db),
		Publisher:  opts.Publisher,
		Observer:   opts.Observer,
		Location:   opts.Location,
		Logger:     opts.Logger,
	})
	controller.NewAirQualityController(svc, markers.DefaultBasemap(), opts.Location).RegisterRoutes(mux)
	return svc
}
