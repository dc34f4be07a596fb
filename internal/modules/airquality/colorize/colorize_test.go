package colorize

import (
	"math"
	"testing"

	"aqmap-server/internal/modules/airquality/types"
)

func TestInterpolate(t *testing.T) {
	black := types.Color{0, 0, 0}
	ten := types.Color{10, 10, 10}

	t.Run("midpoint", func(t *testing.T) {
		got, ok := Interpolate(black, ten, 5, 0, 10)
		if !ok {
			t.Fatal("ok = false; want true")
		}
		if got != (types.Color{5, 5, 5}) {
			t.Errorf("got %v; want [5 5 5]", got)
		}
	})

	t.Run("endpoints are inclusive", func(t *testing.T) {
		if got, ok := Interpolate(black, ten, 0, 0, 10); !ok || got != black {
			t.Errorf("at min: got %v ok=%v; want %v", got, ok, black)
		}
		if got, ok := Interpolate(black, ten, 10, 0, 10); !ok || got != ten {
			t.Errorf("at max: got %v ok=%v; want %v", got, ok, ten)
		}
	})

	t.Run("outside range is not applicable", func(t *testing.T) {
		for _, v := range []float64{-0.001, 10.001, math.NaN()} {
			if _, ok := Interpolate(black, ten, v, 0, 10); ok {
				t.Errorf("value %v: ok = true; want false", v)
			}
		}
	})

	t.Run("rounds each channel", func(t *testing.T) {
		got, ok := Interpolate(SmallFill.Good, SmallFill.Medium, 5, 0, 10)
		if !ok {
			t.Fatal("ok = false")
		}
		if got != (types.Color{191, 151, 6}) {
			t.Errorf("got %v; want [191 151 6]", got)
		}
	})

	t.Run("degenerate range", func(t *testing.T) {
		got, ok := Interpolate(black, ten, 3, 3, 3)
		if !ok || got != black {
			t.Errorf("got %v ok=%v; want %v true", got, ok, black)
		}
	})
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		pm25, pm10 float64
		want       Band
	}{
		{0, 0, Good},
		{10, 25, Good},
		{10.01, 0, Medium},
		{0, 25.01, Medium},
		{15, 50, Medium},
		{15.01, 0, Bad},
		{0, 50.01, Bad},
		{3, 80, Bad},
	}
	for _, tt := range tests {
		if got := BandOf(tt.pm25, tt.pm10); got != tt.want {
			t.Errorf("BandOf(%v, %v) = %v; want %v", tt.pm25, tt.pm10, got, tt.want)
		}
	}
}

func TestClassify_badIsUnmodified(t *testing.T) {
	for _, p := range []Palette{SmallFill, LargeFill, LargeStroke} {
		for _, in := range [][2]float64{{15.5, 0}, {0, 51}, {400, 400}, {16, 10}} {
			if got := Classify(in[0], in[1], p); got != p.Bad {
				t.Errorf("Classify(%v, %v) = %v; want bad %v", in[0], in[1], got, p.Bad)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		pm25, pm10 float64
		want       types.Color
	}{
		{name: "zero is good", pm25: 0, pm10: 0, want: SmallFill.Good},
		{name: "good band uses pm25", pm25: 5, pm10: 20, want: types.Color{191, 151, 6}},
		{name: "top of good band reaches medium", pm25: 10, pm10: 0, want: SmallFill.Medium},
		{name: "bottom of medium band is medium", pm25: 10, pm10: 26, want: SmallFill.Medium},
		{name: "medium band uses pm25", pm25: 12.5, pm10: 0, want: types.Color{186, 51, 9}},
		{name: "medium band falls back to pm10", pm25: 4, pm10: 37.5, want: types.Color{186, 51, 9}},
		{name: "top of medium band reaches bad", pm25: 15, pm10: 0, want: SmallFill.Bad},
		{name: "good band falls back to pm10", pm25: -1, pm10: 12.5, want: types.Color{191, 151, 6}},
		{name: "both out of range clamps to band start", pm25: -1, pm10: -1, want: SmallFill.Good},
		{name: "nan holds at band start", pm25: math.NaN(), pm10: math.NaN(), want: SmallFill.Good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.pm25, tt.pm10, SmallFill); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v; want %v", tt.pm25, tt.pm10, got, tt.want)
			}
		})
	}
}

func TestClassify_customPalette(t *testing.T) {
	p := Palette{Good: types.Color{0, 0, 0}, Medium: types.Color{10, 10, 10}, Bad: types.Color{20, 20, 20}}
	if got := Classify(5, 0, p); got != (types.Color{5, 5, 5}) {
		t.Errorf("got %v; want [5 5 5]", got)
	}
}

func TestClassify_missingFieldsAreGood(t *testing.T) {
	var r types.Reading
	if got := Classify(r.PM25(), r.PM10(), SmallFill); got != SmallFill.Good {
		t.Errorf("got %v; want good %v", got, SmallFill.Good)
	}
	if BandOf(r.PM25(), r.PM10()) != Good {
		t.Error("reading without measurements should be in the good band")
	}
}

func TestClassify_staysBetweenBandColors(t *testing.T) {
	within := func(c, a, b types.Color) bool {
		for i := range c {
			lo, hi := min(a[i], b[i]), max(a[i], b[i])
			if c[i] < lo || c[i] > hi {
				return false
			}
		}
		return true
	}
	for _, p := range []Palette{SmallFill, LargeFill, LargeStroke} {
		for pm25 := 0.0; pm25 <= 20; pm25 += 0.25 {
			for pm10 := 0.0; pm10 <= 60; pm10 += 1.5 {
				got := Classify(pm25, pm10, p)
				var ok bool
				switch BandOf(pm25, pm10) {
				case Good:
					ok = within(got, p.Good, p.Medium)
				case Medium:
					ok = within(got, p.Medium, p.Bad)
				case Bad:
					ok = got == p.Bad
				}
				if !ok {
					t.Fatalf("Classify(%v, %v) = %v escapes its band", pm25, pm10, got)
				}
			}
		}
	}
}

func TestLargeMarker(t *testing.T) {
	got := LargeMarker(20, 0)
	if got.Fill != LargeFill.Bad || got.Stroke != LargeStroke.Bad {
		t.Errorf("got %+v; want bad fill and stroke", got)
	}
	got = LargeMarker(0, 0)
	if got.Fill != LargeFill.Good || got.Stroke != LargeStroke.Good {
		t.Errorf("got %+v; want good fill and stroke", got)
	}
	if SmallMarker(0, 0) != SmallFill.Good {
		t.Errorf("SmallMarker(0, 0) = %v; want %v", SmallMarker(0, 0), SmallFill.Good)
	}
}

func TestBand_String(t *testing.T) {
	if Good.String() != "good" || Medium.String() != "medium" || Bad.String() != "bad" {
		t.Errorf("unexpected band names: %s %s %s", Good, Medium, Bad)
	}
	if Band(9).String() != "unknown" {
		t.Errorf("Band(9) = %s; want unknown", Band(9))
	}
}

func TestBand_TextRoundTrip(t *testing.T) {
	for _, b := range []Band{Good, Medium, Bad} {
		text, err := b.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", b, err)
		}
		var got Band
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != b {
			t.Errorf("round trip %v -> %q -> %v", b, text, got)
		}
	}
	var b Band
	if err := b.UnmarshalText([]byte("terrible")); err == nil {
		t.Error("UnmarshalText(terrible) err = nil; want error")
	}
}
