package reconcile

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

var day = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func utcOpts(window int) Options {
	return Options{Window: window, Location: time.UTC}
}

func TestMerge_TwoSeriesGapFilled(t *testing.T) {
	series := []Series{
		{Sensor: Temperature, Samples: []Sample{{At: at(8, 0), Value: 24}}},
		{Sensor: Humidity, Samples: []Sample{{At: at(8, 0), Value: 48}, {At: at(12, 0), Value: 42}}},
	}

	got := Merge(series, utcOpts(6))
	if got.Partial() {
		t.Fatalf("Partial() = true, want false")
	}
	want := []Point{
		{At: at(8, 0), Label: "08:00", Temperature: 24, Humidity: 48},
		{At: at(12, 0), Label: "12:00", Temperature: 0, Humidity: 42},
	}
	assertPoints(t, got.Points, want)
}

func TestMerge_EmptyInputsYieldPlaceholder(t *testing.T) {
	cases := map[string][]Series{
		"nil":          nil,
		"empty series": {{Sensor: Temperature}, {Sensor: Humidity}},
		"all failed": {
			{Sensor: Temperature, Err: errors.New("boom")},
			{Sensor: Humidity, Err: errors.New("boom")},
		},
	}
	for name, series := range cases {
		t.Run(name, func(t *testing.T) {
			got := Merge(series, utcOpts(6))
			if len(got.Points) != 1 || !got.Points[0].Placeholder {
				t.Fatalf("Points = %#v, want single placeholder", got.Points)
			}
			if got.Points[0].Label != PlaceholderLabel {
				t.Fatalf("Label = %q, want %q", got.Points[0].Label, PlaceholderLabel)
			}
			if !got.Empty() {
				t.Fatalf("Empty() = false, want true")
			}
		})
	}
}

func TestMerge_PartialFailureKeepsOtherSeries(t *testing.T) {
	series := []Series{
		{Sensor: Temperature, Err: errors.New("timeout")},
		{Sensor: Humidity, Samples: []Sample{{At: at(9, 0), Value: 51}}},
	}
	got := Merge(series, utcOpts(6))
	if !got.Partial() || len(got.Failed) != 1 || got.Failed[0] != Temperature {
		t.Fatalf("Failed = %v, want [temperature]", got.Failed)
	}
	assertPoints(t, got.Points, []Point{{At: at(9, 0), Label: "09:00", Humidity: 51}})
}

func TestMerge_LastWriteWinsWithinSeries(t *testing.T) {
	series := []Series{
		{Sensor: Temperature, Samples: []Sample{
			{At: at(10, 0), Value: 20},
			{At: at(10, 0).In(time.FixedZone("CET", 3600)), Value: 21},
		}},
	}
	got := Merge(series, utcOpts(6))
	assertPoints(t, got.Points, []Point{{At: at(10, 0), Label: "10:00", Temperature: 21}})
}

func TestMerge_SkewedTimestampsStayDistinct(t *testing.T) {
	series := []Series{
		{Sensor: Temperature, Samples: []Sample{{At: at(10, 0), Value: 20}}},
		{Sensor: Humidity, Samples: []Sample{{At: at(10, 0).Add(2 * time.Second), Value: 40}}},
	}
	got := Merge(series, utcOpts(6))
	if len(got.Points) != 2 {
		t.Fatalf("len(Points) = %d, want 2 distinct keys", len(got.Points))
	}
	if got.Points[0].Humidity != 0 || got.Points[1].Temperature != 0 {
		t.Fatalf("skewed samples should not be coalesced: %#v", got.Points)
	}
}

func TestMerge_WindowKeepsMostRecent(t *testing.T) {
	var samples []Sample
	for h := 0; h < 10; h++ {
		samples = append(samples, Sample{At: at(h, 0), Value: float64(h)})
	}
	// Unsorted input must still produce ascending output.
	rand.New(rand.NewSource(1)).Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})

	got := Merge([]Series{{Sensor: Temperature, Samples: samples}}, utcOpts(3))
	if len(got.Points) != 3 {
		t.Fatalf("len(Points) = %d, want 3", len(got.Points))
	}
	for i, want := range []float64{7, 8, 9} {
		if got.Points[i].Temperature != want {
			t.Fatalf("Points[%d].Temperature = %v, want %v", i, got.Points[i].Temperature, want)
		}
	}
}

func TestMerge_DefaultWindow(t *testing.T) {
	var samples []Sample
	for h := 0; h < 12; h++ {
		samples = append(samples, Sample{At: at(h, 0), Value: 1})
	}
	got := Merge([]Series{{Sensor: Humidity, Samples: samples}}, Options{Location: time.UTC})
	if len(got.Points) != DefaultWindow {
		t.Fatalf("len(Points) = %d, want %d", len(got.Points), DefaultWindow)
	}
}

func TestMerge_IgnoresUntrackedAndZeroTimes(t *testing.T) {
	series := []Series{
		{Sensor: "pressure", Samples: []Sample{{At: at(1, 0), Value: 1013}}},
		{Sensor: Temperature, Samples: []Sample{{Value: 99}}},
	}
	got := Merge(series, utcOpts(6))
	if !got.Empty() {
		t.Fatalf("Points = %#v, want placeholder", got.Points)
	}
}

func TestMerge_LabelsAcrossDays(t *testing.T) {
	series := []Series{
		{Sensor: Temperature, Samples: []Sample{
			{At: at(23, 0), Value: 1},
			{At: at(23, 0).Add(2 * time.Hour), Value: 2},
		}},
	}
	got := Merge(series, utcOpts(6))
	if got.Points[0].Label != "Mar 04 23:00" || got.Points[1].Label != "Mar 05 01:00" {
		t.Fatalf("labels = %q, %q", got.Points[0].Label, got.Points[1].Label)
	}

	got = Merge(series, Options{Location: time.UTC, Layout: "15h"})
	if got.Points[0].Label != "23h" {
		t.Fatalf("custom layout label = %q, want 23h", got.Points[0].Label)
	}
}

func TestMerge_LengthProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		window := 1 + rng.Intn(8)
		union := map[int64]struct{}{}
		var series []Series
		for _, sensor := range Tracked {
			n := rng.Intn(10)
			var samples []Sample
			for i := 0; i < n; i++ {
				ts := at(rng.Intn(24), 0)
				union[ts.UnixMicro()] = struct{}{}
				samples = append(samples, Sample{At: ts, Value: rng.Float64()})
			}
			series = append(series, Series{Sensor: sensor, Samples: samples})
		}

		got := Merge(series, utcOpts(window))
		if len(union) == 0 {
			if !got.Empty() {
				t.Fatalf("iter %d: want placeholder for empty union", iter)
			}
			continue
		}
		want := len(union)
		if want > window {
			want = window
		}
		if len(got.Points) != want {
			t.Fatalf("iter %d: len = %d, want min(%d, %d)", iter, len(got.Points), window, len(union))
		}
		for i := 1; i < len(got.Points); i++ {
			if !got.Points[i-1].At.Before(got.Points[i].At) {
				t.Fatalf("iter %d: points not strictly ascending at %d", iter, i)
			}
		}
	}
}

func TestPointValue(t *testing.T) {
	p := Point{Temperature: 3, Humidity: 4}
	if p.Value(Temperature) != 3 || p.Value(Humidity) != 4 || p.Value("co2") != 0 {
		t.Fatalf("Value lookup mismatch: %#v", p)
	}
}

func assertPoints(t *testing.T, got, want []Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len(points) = %d, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if !g.At.Equal(w.At) || g.Label != w.Label || g.Temperature != w.Temperature ||
			g.Humidity != w.Humidity || g.Placeholder != w.Placeholder {
			t.Fatalf("points[%d] = %#v, want %#v", i, g, w)
		}
	}
}
