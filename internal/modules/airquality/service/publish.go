package service

import (
	"context"
	"time"

	"aqmap-server/internal/modules/airquality/colorize"
	"aqmap-server/internal/modules/airquality/types"
)

// SnapshotTopic is published retained so a new subscriber immediately gets
// the latest marker set. Fetch runs go to RunsTopic without retention.
const (
	SnapshotTopic = ""
	RunsTopic     = "runs"
)

type MarkerSummary struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Position [2]float64    `json:"position"`
	PM25     float64       `json:"pm25"`
	PM10     float64       `json:"pm10"`
	Band     colorize.Band `json:"band"`
	Color    types.Color   `json:"color"`
}

type SnapshotSummary struct {
	SnapshotID string          `json:"snapshotId"`
	FetchedAt  time.Time       `json:"fetchedAt"`
	Status     string          `json:"status"`
	Readings   int             `json:"readings"`
	Labels     int             `json:"labels"`
	Bands      map[string]int  `json:"bands"`
	Markers    []MarkerSummary `json:"markers"`
}

func Summarize(snap Snapshot, status string) SnapshotSummary {
	out := SnapshotSummary{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		Status:     status,
		Readings:   len(snap.Readings),
		Labels:     len(snap.Layers.Labels),
		Bands:      bandNames(snap.Layers),
		Markers:    make([]MarkerSummary, 0, len(snap.Layers.Small)),
	}
	for _, m := range snap.Layers.Small {
		r := snap.Readings[m.Index]
		out.Markers = append(out.Markers, MarkerSummary{
			Index:    m.Index,
			Name:     r.Name,
			Position: m.Position,
			PM25:     r.PM25(),
			PM10:     r.PM10(),
			Band:     m.Band,
			Color:    m.Fill,
		})
	}
	return out
}

func (s *Service) publish(ctx context.Context, snap Snapshot, run types.FetchRun) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, SnapshotTopic, Summarize(snap, run.Status), true); err != nil {
		s.publishFailed(err)
		return
	}
	if err := s.publisher.PublishJSON(ctx, RunsTopic, run, false); err != nil {
		s.publishFailed(err)
	}
}

func (s *Service) publishFailed(err error) {
	s.logger.Warn("publish snapshot failed", "error", err)
	if s.observer != nil {
		s.observer.MQTTPublishFailed()
	}
}
