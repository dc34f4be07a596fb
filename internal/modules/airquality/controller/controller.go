package controller

import (
	"context"
	"net/http"
	"time"

	"aqmap-server/internal/modules/airquality/detail"
	"aqmap-server/internal/modules/airquality/markers"
	"aqmap-server/internal/modules/airquality/service"
	"aqmap-server/internal/modules/airquality/types"
)

// AirQualityService is the part of service.Service the HTTP layer needs.
type AirQualityService interface {
	Current() service.Snapshot
	Refresh(ctx context.Context) (service.Snapshot, types.FetchRun)
	Detail(index int) (detail.Detail, error)
	Select(index int) (detail.Detail, error)
	ClearSelection()
	Selected() int
	FetchRuns(ctx context.Context, limit int) ([]types.FetchRun, int, error)
	LastFetchRun(ctx context.Context) (*types.FetchRun, error)
}

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	service AirQualityService
	basemap markers.Basemap
	loc     *time.Location
}

func NewAirQualityController(svc AirQualityService, basemap markers.Basemap, loc *time.Location) AirQualityController {
	if loc == nil {
		loc = time.Local
	}
	return &airQualityControllerImpl{service: svc, basemap: basemap, loc: loc}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleMap)

	mux.HandleFunc("GET /api/v1/layers", c.handleLayers)
	mux.HandleFunc("GET /api/v1/basemap", c.handleBasemap)
	mux.HandleFunc("GET /api/v1/readings", c.handleReadings)
	mux.HandleFunc("GET /api/v1/readings/{index}", c.handleReading)
	mux.HandleFunc("POST /api/v1/refresh", c.handleRefresh)
	mux.HandleFunc("GET /api/v1/fetches", c.handleFetches)
	mux.HandleFunc("GET /api/v1/fetches/last", c.handleLastFetch)

	mux.HandleFunc("GET /partials/detail", c.handleDetailPartial)
	mux.HandleFunc("GET /partials/detail/close", c.handleDetailClose)
}
