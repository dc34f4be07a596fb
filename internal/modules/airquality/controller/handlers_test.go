package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aqmap-server/internal/modules/airquality/detail"
	"aqmap-server/internal/modules/airquality/markers"
	"aqmap-server/internal/modules/airquality/service"
	"aqmap-server/internal/modules/airquality/types"
	"aqmap-server/internal/modules/airquality/views"
)

type mockService struct {
	snap      service.Snapshot
	run       types.FetchRun
	refreshes int
	selected  int
	runs      []types.FetchRun
	runsTotal int
	runsErr   error
	gotLimit  int
}

func (m *mockService) Current() service.Snapshot { return m.snap }

func (m *mockService) Refresh(ctx context.Context) (service.Snapshot, types.FetchRun) {
	m.refreshes++
	return m.snap, m.run
}

func (m *mockService) Detail(index int) (detail.Detail, error) {
	if index < 0 || index >= len(m.snap.Readings) {
		return detail.Detail{}, service.ErrIndexOutOfRange
	}
	return detail.Build(m.snap.Readings[index], index, time.UTC), nil
}

func (m *mockService) Select(index int) (detail.Detail, error) {
	d, err := m.Detail(index)
	if err != nil {
		return d, err
	}
	m.selected = index
	return d, nil
}

func (m *mockService) ClearSelection() { m.selected = service.NoSelection }

func (m *mockService) Selected() int { return m.selected }

func (m *mockService) FetchRuns(ctx context.Context, limit int) ([]types.FetchRun, int, error) {
	m.gotLimit = limit
	return m.runs, m.runsTotal, m.runsErr
}

func (m *mockService) LastFetchRun(ctx context.Context) (*types.FetchRun, error) {
	if m.runsErr != nil || len(m.runs) == 0 {
		return nil, m.runsErr
	}
	run := m.runs[0]
	return &run, nil
}

func testReadings() []types.Reading {
	return []types.Reading{
		{
			Name:     "Centar",
			Location: types.Location{Longitude: "19.6691", Latitude: "46.0972"},
			Measurement: types.Measurement{
				PM25: "3", PM10: "5", Time: "1700000000000000000",
			},
		},
		{
			Name:     "Palić",
			Location: types.Location{Longitude: "19.765", Latitude: "46.1"},
			Measurement: types.Measurement{
				PM25: "22.4", PM10: "60", Pressure: "101325", Temperature: "17.6",
			},
		},
	}
}

func newMock() *mockService {
	readings := testReadings()
	return &mockService{
		snap: service.Snapshot{
			ID:        "3f1c0c7e-8a51-4f7e-9c1e-4d4a7b0f2a11",
			FetchedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			Readings:  readings,
			Layers:    markers.Build(readings),
		},
		selected: service.NoSelection,
	}
}

func newMux(svc AirQualityService) *http.ServeMux {
	mux := http.NewServeMux()
	NewAirQualityController(svc, markers.DefaultBasemap(), time.UTC).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return out
}

func Test_handleMap(t *testing.T) {
	t.Run("renders HTML with band counts", func(t *testing.T) {
		if err := views.LoadTemplates(); err != nil {
			t.Fatalf("LoadTemplates: %v", err)
		}
		m := newMock()
		m.selected = 1
		rec := do(t, newMux(m), http.MethodGet, "/")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		body := rec.Body.String()
		for _, want := range []string{"Dobro: 1", "Loše: 1", "01.03.2025 10:00:00", "Palić"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		rec := do(t, newMux(newMock()), http.MethodGet, "/dashboard")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want 404", rec.Code)
		}
	})
}

func Test_handleLayers(t *testing.T) {
	rec := do(t, newMux(newMock()), http.MethodGet, "/api/v1/layers")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		SnapshotID string                 `json:"snapshotId"`
		FetchedAt  *time.Time             `json:"fetchedAt"`
		Small      []markers.CircleMarker `json:"small"`
		Large      []markers.CircleMarker `json:"large"`
		Labels     []markers.TextLabel    `json:"labels"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SnapshotID == "" || body.FetchedAt == nil {
		t.Errorf("snapshot metadata missing: %+v", body)
	}
	if len(body.Small) != 2 || len(body.Large) != 2 || len(body.Labels) != 2 {
		t.Fatalf("layer sizes %d/%d/%d", len(body.Small), len(body.Large), len(body.Labels))
	}
	if body.Small[1].ID != "circle-layer-1" || body.Labels[1].Text != "22" {
		t.Errorf("unexpected marker data: %+v %+v", body.Small[1], body.Labels[1])
	}
}

func Test_handleLayers_EmptySnapshot(t *testing.T) {
	m := &mockService{snap: service.Snapshot{ID: "x", Readings: []types.Reading{}, Layers: markers.Build(nil)}}
	rec := do(t, newMux(m), http.MethodGet, "/api/v1/layers")

	body := rec.Body.String()
	for _, want := range []string{`"small":[]`, `"large":[]`, `"labels":[]`, `"fetchedAt":null`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func Test_handleBasemap(t *testing.T) {
	rec := do(t, newMux(newMock()), http.MethodGet, "/api/v1/basemap")
	got := decode[markers.Basemap](t, rec)
	if len(got.TileURLs) == 0 || got.TileSize != 256 || got.LowDPIZoomOffset != -1 {
		t.Errorf("basemap = %+v", got)
	}
}

func Test_handleReadings(t *testing.T) {
	rec := do(t, newMux(newMock()), http.MethodGet, "/api/v1/readings")
	got := decode[map[string]any](t, rec)
	if got["count"] != float64(2) {
		t.Errorf("count = %v; want 2", got["count"])
	}
	items, ok := got["items"].([]any)
	if !ok || len(items) != 2 {
		t.Errorf("items = %v", got["items"])
	}
}

func Test_handleReading(t *testing.T) {
	mux := newMux(newMock())

	t.Run("returns reading and detail", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/api/v1/readings/1")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		got := decode[readingResponse](t, rec)
		if got.Reading.Name != "Palić" || got.Detail.PM25 != "22" || got.Detail.Temperature != "18" {
			t.Errorf("got %+v", got)
		}
		if got.Detail.ReadAt != "0" {
			t.Errorf("ReadAt = %q; want 0 for missing time", got.Detail.ReadAt)
		}
	})

	errs := []struct {
		path   string
		status int
	}{
		{"/api/v1/readings/abc", http.StatusBadRequest},
		{"/api/v1/readings/-1", http.StatusBadRequest},
		{"/api/v1/readings/2", http.StatusNotFound},
	}
	for _, tt := range errs {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, mux, http.MethodGet, tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status = %d; want %d", rec.Code, tt.status)
			}
			body := decode[map[string]any](t, rec)
			if _, ok := body["error"]; !ok {
				t.Errorf("expected error field, got %v", body)
			}
			if _, ok := body["message"]; !ok {
				t.Errorf("expected message field, got %v", body)
			}
			if body["path"] != tt.path {
				t.Errorf("path = %v; want %s", body["path"], tt.path)
			}
		})
	}
}

func Test_handleRefresh(t *testing.T) {
	m := newMock()
	m.run = types.FetchRun{ID: "run-1", Status: types.FetchStatusError, Error: "connection refused"}
	mux := newMux(m)

	rec := do(t, mux, http.MethodPost, "/api/v1/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	got := decode[types.FetchRun](t, rec)
	if got.ID != "run-1" || got.Status != types.FetchStatusError {
		t.Errorf("run = %+v", got)
	}
	if m.refreshes != 1 {
		t.Errorf("refreshes = %d; want 1", m.refreshes)
	}

	if rec := do(t, mux, http.MethodGet, "/api/v1/refresh"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh status = %d; want 405", rec.Code)
	}
}

func Test_handleFetches(t *testing.T) {
	t.Run("passes limit and returns items", func(t *testing.T) {
		m := newMock()
		m.runs = []types.FetchRun{{ID: "b"}, {ID: "a"}}
		m.runsTotal = 7
		rec := do(t, newMux(m), http.MethodGet, "/api/v1/fetches?limit=2")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		got := decode[fetchesResponse](t, rec)
		if got.Limit != 2 || got.Total != 7 || len(got.Items) != 2 || m.gotLimit != 2 {
			t.Errorf("got %+v (service limit %d)", got, m.gotLimit)
		}
	})

	t.Run("invalid limit is 400", func(t *testing.T) {
		rec := do(t, newMux(newMock()), http.MethodGet, "/api/v1/fetches?limit=0")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
	})

	t.Run("service error is 500", func(t *testing.T) {
		m := newMock()
		m.runsErr = errors.New("db error")
		rec := do(t, newMux(m), http.MethodGet, "/api/v1/fetches")
		if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "db error") {
			t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
		}
	})
}

func Test_handleLastFetch(t *testing.T) {
	t.Run("returns newest run", func(t *testing.T) {
		m := newMock()
		m.runs = []types.FetchRun{
			{ID: "run-2", Status: types.FetchStatusError, Error: "upstream down"},
			{ID: "run-1", Status: types.FetchStatusOK},
		}
		rec := do(t, newMux(m), http.MethodGet, "/api/v1/fetches/last")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		got := decode[types.FetchRun](t, rec)
		if got.ID != "run-2" || got.Status != types.FetchStatusError {
			t.Errorf("run = %+v", got)
		}
	})

	t.Run("no runs is 404", func(t *testing.T) {
		rec := do(t, newMux(newMock()), http.MethodGet, "/api/v1/fetches/last")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want 404", rec.Code)
		}
	})

	t.Run("query failure is 500", func(t *testing.T) {
		m := newMock()
		m.runsErr = errors.New("db closed")
		rec := do(t, newMux(m), http.MethodGet, "/api/v1/fetches/last")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want 500", rec.Code)
		}
	})
}

func Test_detailPartials(t *testing.T) {
	if err := views.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	m := newMock()
	mux := newMux(m)

	rec := do(t, mux, http.MethodGet, "/partials/detail?index=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Centar") || !strings.Contains(rec.Body.String(), "Utorak, 14. Novembar 22:13") {
		t.Errorf("partial = %q", rec.Body.String())
	}
	if m.selected != 0 {
		t.Errorf("selected = %d; want 0", m.selected)
	}

	if rec := do(t, mux, http.MethodGet, "/partials/detail?index=9"); rec.Code != http.StatusNotFound {
		t.Errorf("out of range status = %d; want 404", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/partials/detail"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing index status = %d; want 400", rec.Code)
	}
	if m.selected != 0 {
		t.Errorf("failed select changed selection to %d", m.selected)
	}

	rec = do(t, mux, http.MethodGet, "/partials/detail/close")
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "" {
		t.Errorf("close body = %q; want empty", rec.Body.String())
	}
	if m.selected != service.NoSelection {
		t.Errorf("selected after close = %d", m.selected)
	}
}
