// Package detail builds the view model of the reading detail panel.
package detail

import (
	"fmt"
	"time"

	"aqmap-server/internal/modules/airquality/colorize"
	"aqmap-server/internal/modules/airquality/types"
)

// City is the fixed locality shown under the sensor name.
const City = "Subotica"

var weekdays = [...]string{
	"Nedelja",
	"Ponedeljak",
	"Utorak",
	"Sreda",
	"Četvrtak",
	"Petak",
	"Subota",
}

var months = [...]string{
	"Januar",
	"Februar",
	"Mart",
	"April",
	"Maj",
	"Jun",
	"Jul",
	"Avgust",
	"Septembar",
	"Oktobar",
	"Novembar",
	"Decembar",
}

type Detail struct {
	Index       int           `json:"index"`
	Name        string        `json:"name"`
	City        string        `json:"city"`
	ReadAt      string        `json:"readAt"`
	PM25        string        `json:"pm25"`
	PM25AQI     string        `json:"pm25Aqi"`
	PM1         string        `json:"pm1"`
	PM10        string        `json:"pm10"`
	PressurePa  string        `json:"pressurePa"`
	Temperature string        `json:"temperatureC"`
	Band        colorize.Band `json:"band"`
}

// Build renders every figure as integer text; missing fields show "0".
// The AQI figure is the rounded PM2.5 concentration, not a computed index.
func Build(r types.Reading, index int, loc *time.Location) Detail {
	m := r.Measurement
	return Detail{
		Index:       index,
		Name:        r.Name,
		City:        City,
		ReadAt:      FormatNanos(m.Time, loc),
		PM25:        m.PM25.Rounded(),
		PM25AQI:     m.PM25.Rounded(),
		PM1:         m.PM1.Rounded(),
		PM10:        m.PM10.Rounded(),
		PressurePa:  m.Pressure.Rounded(),
		Temperature: m.Temperature.Rounded(),
		Band:        colorize.BandOf(r.PM25(), r.PM10()),
	}
}

// FormatNanos formats a nanosecond epoch timestamp as
// "Ponedeljak, 3. Mart 14:05" in loc. An absent timestamp formats as "0".
func FormatNanos(ns types.Decimal, loc *time.Location) string {
	if !ns.Present() {
		return "0"
	}
	if loc == nil {
		loc = time.Local
	}
	// Millisecond precision, as the timestamp passes through a JS-style epoch.
	ms := int64(ns.Float() / 1e6)
	t := time.UnixMilli(ms).In(loc)
	return fmt.Sprintf("%s, %d. %s %02d:%02d",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Hour(), t.Minute())
}
