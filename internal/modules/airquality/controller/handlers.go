package controller

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"aqmap-server/internal/modules/airquality/colorize"
	"aqmap-server/internal/modules/airquality/detail"
	"aqmap-server/internal/modules/airquality/markers"
	"aqmap-server/internal/modules/airquality/service"
	"aqmap-server/internal/modules/airquality/types"
	"aqmap-server/internal/modules/airquality/views"
	"aqmap-server/internal/utils"
)

const pageTitle = "Kvalitet vazduha"

type layersResponse struct {
	SnapshotID string                 `json:"snapshotId"`
	FetchedAt  any                    `json:"fetchedAt"`
	Small      []markers.CircleMarker `json:"small"`
	Large      []markers.CircleMarker `json:"large"`
	Labels     []markers.TextLabel    `json:"labels"`
}

type readingsResponse struct {
	SnapshotID string          `json:"snapshotId"`
	FetchedAt  any             `json:"fetchedAt"`
	Count      int             `json:"count"`
	Items      []types.Reading `json:"items"`
}

type readingResponse struct {
	SnapshotID string        `json:"snapshotId"`
	Reading    types.Reading `json:"reading"`
	Detail     detail.Detail `json:"detail"`
}

type fetchesResponse struct {
	Limit int              `json:"limit"`
	Total int              `json:"total"`
	Items []types.FetchRun `json:"items"`
}

func (c *airQualityControllerImpl) handleMap(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Current()
	counts := snap.Layers.BandCounts()
	data := &views.MapData{
		Title:      pageTitle,
		SnapshotID: snap.ID,
		FetchedAt:  formatFetchedAt(snap.FetchedAt, c.loc),
		Readings:   len(snap.Readings),
		Labels:     len(snap.Layers.Labels),
		Good:       counts[colorize.Good],
		Medium:     counts[colorize.Medium],
		Bad:        counts[colorize.Bad],
	}
	if idx := c.service.Selected(); idx != service.NoSelection {
		if d, err := c.service.Detail(idx); err == nil {
			data.Selected = &d
		}
	}

	var buf bytes.Buffer
	if err := views.RenderMap(&buf, data); err != nil {
		slog.Error("map template render failed", "error", err)
		utils.WriteError(w, r, http.StatusInternalServerError, "failed to render page")
		return
	}
	writeHTML(w, buf.Bytes())
}

func (c *airQualityControllerImpl) handleLayers(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Current()
	utils.WriteJSON(w, http.StatusOK, layersResponse{
		SnapshotID: snap.ID,
		FetchedAt:  zeroAsNullTime(snap.FetchedAt),
		Small:      snap.Layers.Small,
		Large:      snap.Layers.Large,
		Labels:     snap.Layers.Labels,
	})
}

func (c *airQualityControllerImpl) handleBasemap(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.basemap)
}

func (c *airQualityControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Current()
	utils.WriteJSON(w, http.StatusOK, readingsResponse{
		SnapshotID: snap.ID,
		FetchedAt:  zeroAsNullTime(snap.FetchedAt),
		Count:      len(snap.Readings),
		Items:      snap.Readings,
	})
}

func (c *airQualityControllerImpl) handleReading(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		utils.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap := c.service.Current()
	if index >= len(snap.Readings) {
		utils.WriteError(w, r, http.StatusNotFound, service.ErrIndexOutOfRange.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, readingResponse{
		SnapshotID: snap.ID,
		Reading:    snap.Readings[index],
		Detail:     detail.Build(snap.Readings[index], index, c.loc),
	})
}

// handleRefresh answers 200 even when the upstream failed: the run carries
// the outcome and the map simply shows the empty snapshot.
func (c *airQualityControllerImpl) handleRefresh(w http.ResponseWriter, r *http.Request) {
	_, run := c.service.Refresh(context.WithoutCancel(r.Context()))
	utils.WriteJSON(w, http.StatusOK, run)
}

func (c *airQualityControllerImpl) handleFetches(w http.ResponseWriter, r *http.Request) {
	limit, err := parseFetchesQuery(r)
	if err != nil {
		utils.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	runs, total, err := c.service.FetchRuns(r.Context(), limit)
	if err != nil {
		slog.Error("fetch log query failed", "error", err)
		utils.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, fetchesResponse{Limit: limit, Total: total, Items: runs})
}

func (c *airQualityControllerImpl) handleLastFetch(w http.ResponseWriter, r *http.Request) {
	run, err := c.service.LastFetchRun(r.Context())
	if err != nil {
		slog.Error("last fetch run query failed", "error", err)
		utils.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		utils.WriteError(w, r, http.StatusNotFound, "no refresh has been logged yet")
		return
	}
	utils.WriteJSON(w, http.StatusOK, run)
}

func (c *airQualityControllerImpl) handleDetailPartial(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r.URL.Query().Get("index"))
	if err != nil {
		utils.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d, err := c.service.Select(index)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c.renderDetail(w, r, &d)
}

func (c *airQualityControllerImpl) handleDetailClose(w http.ResponseWriter, r *http.Request) {
	c.service.ClearSelection()
	c.renderDetail(w, r, nil)
}

func (c *airQualityControllerImpl) renderDetail(w http.ResponseWriter, r *http.Request, d *detail.Detail) {
	var buf bytes.Buffer
	if err := views.RenderDetailPartial(&buf, d); err != nil {
		slog.Error("detail partial render failed", "error", err)
		utils.WriteError(w, r, http.StatusInternalServerError, "failed to render")
		return
	}
	writeHTML(w, buf.Bytes())
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrIndexOutOfRange) {
		utils.WriteError(w, r, http.StatusNotFound, err.Error())
		return
	}
	utils.WriteError(w, r, http.StatusInternalServerError, err.Error())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		slog.Error("write response failed", "error", err)
	}
}
