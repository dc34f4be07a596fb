// Package service owns the snapshot currently served by the map: it fetches
// readings, derives marker layers, swaps the result in atomically and keeps
// the selected marker.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"aqmap-server/internal/modules/airquality/colorize"
	"aqmap-server/internal/modules/airquality/detail"
	"aqmap-server/internal/modules/airquality/markers"
	"aqmap-server/internal/modules/airquality/repository"
	"aqmap-server/internal/modules/airquality/source"
	"aqmap-server/internal/modules/airquality/types"
)

var ErrIndexOutOfRange = errors.New("reading index out of range")

// NoSelection is returned by Selected when no marker is open.
const NoSelection = -1

// Publisher pushes JSON documents to the message broker.
type Publisher interface {
	PublishJSON(ctx context.Context, suffix string, v any, retained bool) error
}

// Observer receives refresh outcomes for metrics.
type Observer interface {
	ObserveRefresh(status string, d time.Duration, readings, labels int, bands map[string]int)
	MQTTPublishFailed()
}

// Snapshot is one complete rendering of one upstream response. It is never
// mutated after it has been swapped in.
type Snapshot struct {
	ID        string
	FetchedAt time.Time
	Readings  []types.Reading
	Layers    markers.Layers
}

type Deps struct {
	Fetcher    source.Fetcher
	Repository repository.FetchLogRepository
	// Publisher and Observer are optional.
	Publisher Publisher
	Observer  Observer
	Location  *time.Location
	Logger    *slog.Logger
}

type Service struct {
	fetcher   source.Fetcher
	repo      repository.FetchLogRepository
	publisher Publisher
	observer  Observer
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time

	refreshMu sync.Mutex

	mu       sync.RWMutex
	current  Snapshot
	selected int
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return &Service{
		fetcher:   d.Fetcher,
		repo:      d.Repository,
		publisher: d.Publisher,
		observer:  d.Observer,
		loc:       d.Location,
		logger:    d.Logger,
		now:       time.Now,
		current:   emptySnapshot(time.Time{}),
		selected:  NoSelection,
	}
}

func emptySnapshot(at time.Time) Snapshot {
	return Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: at,
		Readings:  []types.Reading{},
		Layers:    markers.Build(nil),
	}
}

// Refresh fetches the reading array and replaces the current snapshot. A
// failed fetch is logged and yields an empty snapshot. The returned run is the
// fetch log row for this attempt.
func (s *Service) Refresh(ctx context.Context) (Snapshot, types.FetchRun) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	started := s.now()
	readings, fetchErr := s.fetcher.Fetch(ctx)

	snap := emptySnapshot(started)
	if fetchErr != nil {
		s.logger.Error("fetch readings failed", "error", fetchErr)
	} else if readings != nil {
		snap.Readings = readings
		snap.Layers = markers.Build(readings)
	}

	s.mu.Lock()
	s.current = snap
	s.selected = NoSelection
	s.mu.Unlock()

	finished := s.now()
	run := newFetchRun(snap, started, finished, fetchErr)
	s.logger.Info("snapshot refreshed",
		"snapshot_id", snap.ID,
		"status", run.Status,
		"readings", run.ReadingCount,
		"labels", run.LabelCount,
		"duration_ms", finished.Sub(started).Milliseconds(),
	)

	if s.repo != nil {
		if err := s.repo.InsertFetchRun(ctx, run); err != nil {
			s.logger.Error("record fetch run failed", "run_id", run.ID, "error", err)
		}
	}
	if s.observer != nil {
		s.observer.ObserveRefresh(run.Status, finished.Sub(started), run.ReadingCount, run.LabelCount, bandNames(snap.Layers))
	}
	s.publish(ctx, snap, run)

	return snap, run
}

func newFetchRun(snap Snapshot, started, finished time.Time, fetchErr error) types.FetchRun {
	counts := snap.Layers.BandCounts()
	run := types.FetchRun{
		ID:           snap.ID,
		StartedAt:    started,
		FinishedAt:   finished,
		Status:       types.FetchStatusOK,
		ReadingCount: len(snap.Readings),
		LabelCount:   len(snap.Layers.Labels),
		GoodCount:    counts[colorize.Good],
		MediumCount:  counts[colorize.Medium],
		BadCount:     counts[colorize.Bad],
	}
	if fetchErr != nil {
		run.Status = types.FetchStatusError
		run.Error = fetchErr.Error()
	}
	return run
}

func bandNames(l markers.Layers) map[string]int {
	out := make(map[string]int, 3)
	for band, n := range l.BandCounts() {
		out[band.String()] = n
	}
	return out
}

// Current returns the snapshot being served.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reading returns the reading at index in the current snapshot.
func (s *Service) Reading(index int) (types.Reading, error) {
	snap := s.Current()
	if index < 0 || index >= len(snap.Readings) {
		return types.Reading{}, ErrIndexOutOfRange
	}
	return snap.Readings[index], nil
}

// Detail builds the detail panel of the reading at index.
func (s *Service) Detail(index int) (detail.Detail, error) {
	r, err := s.Reading(index)
	if err != nil {
		return detail.Detail{}, err
	}
	return detail.Build(r, index, s.loc), nil
}

// Select opens the detail of the marker at index and returns it.
func (s *Service) Select(index int) (detail.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.current.Readings) {
		return detail.Detail{}, ErrIndexOutOfRange
	}
	s.selected = index
	return detail.Build(s.current.Readings[index], index, s.loc), nil
}

func (s *Service) ClearSelection() {
	s.mu.Lock()
	s.selected = NoSelection
	s.mu.Unlock()
}

// Selected returns the open marker index or NoSelection.
func (s *Service) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// FetchRuns returns the newest fetch log rows and the total row count.
func (s *Service) FetchRuns(ctx context.Context, limit int) ([]types.FetchRun, int, error) {
	if s.repo == nil {
		return []types.FetchRun{}, 0, nil
	}
	runs, err := s.repo.GetFetchRuns(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.GetFetchRunsCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	if runs == nil {
		runs = []types.FetchRun{}
	}
	return runs, total, nil
}

// LastFetchRun returns the newest logged refresh, or nil when none was logged.
func (s *Service) LastFetchRun(ctx context.Context) (*types.FetchRun, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetLastFetchRun(ctx)
}
