// Package markers turns a reading array into the drawable primitives of the
// map: small circles, large stroked circles and deduplicated text labels.
package markers

import (
	"fmt"

	"aqmap-server/internal/modules/airquality/colorize"
	"aqmap-server/internal/modules/airquality/types"
)

const (
	SmallRadius     = 220
	LargeRadius     = 400
	LargeLineWidth  = 10
	LabelRadius     = 300
	LabelSize       = 22
	HoverCursor     = "pointer"
	smallIDPrefix   = "circle-layer-"
	largeIDPrefix   = "circle-layer2-"
	labelIDPrefix   = "text-layer-"
	defaultCursorUI = "auto"
)

var LabelColor = types.Color{255, 255, 255}

// Hover tells the renderer which cursor to show over a pickable marker and
// which to restore when the pointer leaves it.
type Hover struct {
	Cursor  string `json:"cursor"`
	Default string `json:"default"`
}

var pickableHover = Hover{Cursor: HoverCursor, Default: defaultCursorUI}

type CircleMarker struct {
	ID        string        `json:"id"`
	Index     int           `json:"index"`
	Position  [2]float64    `json:"position"`
	Radius    int           `json:"radius"`
	Fill      types.Color   `json:"fillColor"`
	Stroked   bool          `json:"stroked"`
	Stroke    *types.Color  `json:"lineColor,omitempty"`
	LineWidth int           `json:"lineWidth,omitempty"`
	Band      colorize.Band `json:"band"`
	Pickable  bool          `json:"pickable"`
	Hover     Hover         `json:"hover"`
}

type TextLabel struct {
	ID       string      `json:"id"`
	Index    int         `json:"index"`
	Position [2]float64  `json:"position"`
	Radius   int         `json:"radius"`
	Text     string      `json:"text"`
	Size     int         `json:"size"`
	Color    types.Color `json:"color"`
}

// Layers holds the three projections of one reading array. They are
// independent of each other and keyed by the reading's index in that array.
type Layers struct {
	Small  []CircleMarker `json:"small"`
	Large  []CircleMarker `json:"large"`
	Labels []TextLabel    `json:"labels"`
}

// Build derives all layers from readings. It is pure: the same input always
// yields the same layers.
func Build(readings []types.Reading) Layers {
	return Layers{
		Small:  SmallCircles(readings),
		Large:  LargeCircles(readings),
		Labels: Labels(readings),
	}
}

func SmallCircles(readings []types.Reading) []CircleMarker {
	out := make([]CircleMarker, 0, len(readings))
	for i, r := range readings {
		pm25, pm10 := r.PM25(), r.PM10()
		out = append(out, CircleMarker{
			ID:       fmt.Sprintf("%s%d", smallIDPrefix, i),
			Index:    i,
			Position: r.Position(),
			Radius:   SmallRadius,
			Fill:     colorize.SmallMarker(pm25, pm10),
			Band:     colorize.BandOf(pm25, pm10),
			Pickable: true,
			Hover:    pickableHover,
		})
	}
	return out
}

func LargeCircles(readings []types.Reading) []CircleMarker {
	out := make([]CircleMarker, 0, len(readings))
	for i, r := range readings {
		pm25, pm10 := r.PM25(), r.PM10()
		style := colorize.LargeMarker(pm25, pm10)
		stroke := style.Stroke
		out = append(out, CircleMarker{
			ID:        fmt.Sprintf("%s%d", largeIDPrefix, i),
			Index:     i,
			Position:  r.Position(),
			Radius:    LargeRadius,
			Fill:      style.Fill,
			Stroked:   true,
			Stroke:    &stroke,
			LineWidth: LargeLineWidth,
			Band:      colorize.BandOf(pm25, pm10),
			Pickable:  true,
			Hover:     pickableHover,
		})
	}
	return out
}

// Labels emits one PM2.5 label per distinct position. The id keeps the index
// of the reading in the full array, so ids can skip numbers.
func Labels(readings []types.Reading) []TextLabel {
	idx := dedupeIndexes(readings)
	out := make([]TextLabel, 0, len(idx))
	for _, i := range idx {
		r := readings[i]
		out = append(out, TextLabel{
			ID:       fmt.Sprintf("%s%d", labelIDPrefix, i),
			Index:    i,
			Position: r.Position(),
			Radius:   LabelRadius,
			Text:     r.Measurement.PM25.Rounded(),
			Size:     LabelSize,
			Color:    LabelColor,
		})
	}
	return out
}

// BandCounts tallies the small-circle markers per severity band.
func (l Layers) BandCounts() map[colorize.Band]int {
	out := map[colorize.Band]int{colorize.Good: 0, colorize.Medium: 0, colorize.Bad: 0}
	for _, m := range l.Small {
		out[m.Band]++
	}
	return out
}
