// Package colorize maps particulate readings to marker colors.
//
// A (PM2.5, PM10) pair falls into one of three severity bands. Inside the good
// and medium bands the color is linearly interpolated towards the next band's
// color; the bad band is a flat color.
package colorize

import (
	"fmt"
	"math"

	"aqmap-server/internal/modules/airquality/types"
)

// Band thresholds in µg/m³.
const (
	PM25Medium = 10.0
	PM25Bad    = 15.0
	PM10Medium = 25.0
	PM10Bad    = 50.0
)

type Band int

const (
	Good Band = iota
	Medium
	Bad
)

func (b Band) String() string {
	switch b {
	case Good:
		return "good"
	case Medium:
		return "medium"
	case Bad:
		return "bad"
	default:
		return "unknown"
	}
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	switch string(text) {
	case "good":
		*b = Good
	case "medium":
		*b = Medium
	case "bad":
		*b = Bad
	default:
		return fmt.Errorf("unknown band %q", text)
	}
	return nil
}

// Palette holds the color at the start of each band.
type Palette struct {
	Good   types.Color
	Medium types.Color
	Bad    types.Color
}

var (
	SmallFill = Palette{
		Good:   types.Color{180, 208, 12},
		Medium: types.Color{201, 94, 0},
		Bad:    types.Color{171, 7, 18},
	}
	LargeFill = Palette{
		Good:   types.Color{210, 227, 109},
		Medium: types.Color{246, 196, 137},
		Bad:    types.Color{242, 161, 147},
	}
	LargeStroke = Palette{
		Good:   types.Color{180, 208, 12},
		Medium: types.Color{201, 94, 0},
		Bad:    types.Color{171, 7, 18},
	}
)

// BandOf classifies a reading. PM2.5 and PM10 are checked together at each
// level, worst band first.
func BandOf(pm25, pm10 float64) Band {
	switch {
	case pm25 > PM25Bad || pm10 > PM10Bad:
		return Bad
	case pm25 > PM25Medium || pm10 > PM10Medium:
		return Medium
	default:
		return Good
	}
}

// Interpolate blends c1 into c2 by the position of value in [lo, hi].
// ok is false when value lies outside the range; that is not an error, the
// caller moves on to its next candidate.
func Interpolate(c1, c2 types.Color, value, lo, hi float64) (c types.Color, ok bool) {
	if !(value >= lo && value <= hi) {
		return types.Color{}, false
	}
	if hi == lo {
		return c1, true
	}
	ratio := (value - lo) / (hi - lo)
	for i := range c {
		v := math.Round(float64(c1[i]) + ratio*(float64(c2[i])-float64(c1[i])))
		c[i] = uint8(math.Min(math.Max(v, 0), 255))
	}
	return c, true
}

// Classify returns the color of a reading in palette p.
//
// Within a band PM2.5 is tried first and PM10 second. If neither value lies
// in its band range (only possible for negative or NaN inputs) the PM2.5 value
// is clamped to the nearest end of its range; NaN holds at the band's start.
func Classify(pm25, pm10 float64, p Palette) types.Color {
	switch BandOf(pm25, pm10) {
	case Bad:
		return p.Bad
	case Medium:
		return blend(p.Medium, p.Bad,
			span{pm25, PM25Medium, PM25Bad},
			span{pm10, PM10Medium, PM10Bad})
	default:
		return blend(p.Good, p.Medium,
			span{pm25, 0, PM25Medium},
			span{pm10, 0, PM10Medium})
	}
}

type span struct {
	value, lo, hi float64
}

func blend(from, to types.Color, primary, fallback span) types.Color {
	if c, ok := Interpolate(from, to, primary.value, primary.lo, primary.hi); ok {
		return c
	}
	if c, ok := Interpolate(from, to, fallback.value, fallback.lo, fallback.hi); ok {
		return c
	}
	if math.IsNaN(primary.value) {
		return from
	}
	v := math.Min(math.Max(primary.value, primary.lo), primary.hi)
	c, _ := Interpolate(from, to, v, primary.lo, primary.hi)
	return c
}

// Style is the pair of colors used by a stroked marker.
type Style struct {
	Fill   types.Color
	Stroke types.Color
}

// SmallMarker returns the fill of the small, unstroked marker.
func SmallMarker(pm25, pm10 float64) types.Color {
	return Classify(pm25, pm10, SmallFill)
}

// LargeMarker returns fill and stroke of the large marker. Both are
// classified independently from the same reading.
func LargeMarker(pm25, pm10 float64) Style {
	return Style{
		Fill:   Classify(pm25, pm10, LargeFill),
		Stroke: Classify(pm25, pm10, LargeStroke),
	}
}
