package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Decimal is a number the upstream encodes as text. It also accepts bare JSON
// numbers and null.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*d = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*d = Decimal(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = Decimal(n.String())
	return nil
}

// Present reports whether the field carried a non-empty value.
func (d Decimal) Present() bool {
	return strings.TrimSpace(string(d)) != ""
}

// Float returns the parsed value. Absent, empty and non-finite values read as 0.
func (d Decimal) Float() float64 {
	if !d.Present() {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(d)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Rounded formats the value rounded to an integer, half away from zero.
// Absent values format as "0".
func (d Decimal) Rounded() string {
	return strconv.FormatFloat(math.Round(d.Float()), 'f', 0, 64)
}

type Location struct {
	Latitude  Decimal `json:"latitude,omitempty"`
	Longitude Decimal `json:"longitude,omitempty"`
}

type Measurement struct {
	PM1         Decimal `json:"pm1_conc,omitempty"`
	PM25        Decimal `json:"pm25_conc,omitempty"`
	PM10        Decimal `json:"pm10_conc,omitempty"`
	Pressure    Decimal `json:"pr,omitempty"`
	Temperature Decimal `json:"tp,omitempty"`
	// Time is nanoseconds since the Unix epoch.
	Time Decimal `json:"time,omitempty"`
}

// Reading is one record of the upstream array. It has no identity beyond its
// array index and its coordinate pair.
type Reading struct {
	Name        string      `json:"name,omitempty"`
	Location    Location    `json:"location"`
	Measurement Measurement `json:"measurement"`
}

// wireReading accepts both the upstream shape (data1/data2 arrays) and the
// normalized shape this service emits.
type wireReading struct {
	Name        string        `json:"name"`
	Data1       []Location    `json:"data1"`
	Data2       []Measurement `json:"data2"`
	Location    *Location     `json:"location"`
	Measurement *Measurement  `json:"measurement"`
}

func (r *Reading) UnmarshalJSON(b []byte) error {
	var w wireReading
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Reading{Name: w.Name}
	switch {
	case w.Location != nil:
		out.Location = *w.Location
	case len(w.Data1) > 0:
		out.Location = w.Data1[0]
	}
	switch {
	case w.Measurement != nil:
		out.Measurement = *w.Measurement
	case len(w.Data2) > 0:
		out.Measurement = w.Data2[0]
	}
	*r = out
	return nil
}

func (r Reading) Longitude() float64 { return r.Location.Longitude.Float() }
func (r Reading) Latitude() float64  { return r.Location.Latitude.Float() }
func (r Reading) PM25() float64      { return r.Measurement.PM25.Float() }
func (r Reading) PM10() float64      { return r.Measurement.PM10.Float() }

// Position returns the [longitude, latitude] pair used for placing markers.
func (r Reading) Position() [2]float64 {
	return [2]float64{r.Longitude(), r.Latitude()}
}

// Color is an RGB triple. It encodes to JSON as [r,g,b].
type Color [3]uint8

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c[0]), int(c[1]), int(c[2])})
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var v [3]int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	for i, ch := range v {
		c[i] = uint8(min(max(ch, 0), 255))
	}
	return nil
}

// FetchRun is one row of the fetch log.
type FetchRun struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Status       string    `json:"status"`
	ReadingCount int       `json:"readingCount"`
	LabelCount   int       `json:"labelCount"`
	GoodCount    int       `json:"goodCount"`
	MediumCount  int       `json:"mediumCount"`
	BadCount     int       `json:"badCount"`
	Error        string    `json:"error,omitempty"`
}

const (
	FetchStatusOK    = "ok"
	FetchStatusError = "error"
)
