// Package reconcile merges independently fetched sensor series into one
// aligned, windowed sequence of chart points.
//
// Merge is pure: it owns no state and never fails. A series whose fetch failed
// contributes no samples, and an empty union degrades to a single placeholder
// point so callers always have something to render.
//
// Timestamps are compared as exact UTC instants (microsecond precision).
// Samples from different sensors that are a few seconds apart are distinct
// points; no skew tolerance is applied.
package reconcile

import (
	"sort"
	"time"
)

// Sensor names a tracked sensor category as the API spells it.
type Sensor string

const (
	Temperature Sensor = "temperature"
	Humidity    Sensor = "humidity"
)

// Tracked lists the sensors charted for every device, in display order.
var Tracked = []Sensor{Temperature, Humidity}

const (
	// DefaultWindow is the number of most recent points kept.
	DefaultWindow = 6

	// PlaceholderLabel is shown when no series produced any sample.
	PlaceholderLabel = "No data"

	shortLayout = "15:04"
	longLayout  = "Jan 02 15:04"
)

// Sample is one timestamped value.
type Sample struct {
	At    time.Time
	Value float64
}

// Series is the fetched history for one sensor. Err marks a failed fetch.
type Series struct {
	Sensor  Sensor
	Samples []Sample
	Err     error
}

// Point is one chart row: a timestamp and a value per tracked sensor.
type Point struct {
	At          time.Time
	Label       string
	Temperature float64
	Humidity    float64
	Placeholder bool
}

// Value returns the point's value for s, zero for untracked sensors.
func (p Point) Value(s Sensor) float64 {
	switch s {
	case Temperature:
		return p.Temperature
	case Humidity:
		return p.Humidity
	default:
		return 0
	}
}

func (p *Point) set(s Sensor, v float64) {
	switch s {
	case Temperature:
		p.Temperature = v
	case Humidity:
		p.Humidity = v
	}
}

// Options tune Merge.
type Options struct {
	// Window caps the output length; <= 0 means DefaultWindow.
	Window int
	// Location renders labels; nil means time.Local.
	Location *time.Location
	// Layout overrides the automatic label layout.
	Layout string
}

// Result is the merged window plus the sensors whose series failed.
type Result struct {
	Points []Point
	Failed []Sensor
}

// Partial reports whether at least one series failed.
func (r Result) Partial() bool {
	return len(r.Failed) > 0
}

// Empty reports whether the result is the no-data placeholder.
func (r Result) Empty() bool {
	return len(r.Points) == 1 && r.Points[0].Placeholder
}

// Placeholder returns the single point rendered when there is no data.
func Placeholder() []Point {
	return []Point{{Label: PlaceholderLabel, Placeholder: true}}
}

// Merge aligns series by timestamp and keeps the most recent window.
func Merge(series []Series, opts Options) Result {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var result Result
	values := make(map[Sensor]map[int64]float64, len(Tracked))
	instants := make(map[int64]time.Time)

	for _, s := range series {
		if !isTracked(s.Sensor) {
			continue
		}
		if s.Err != nil {
			result.Failed = append(result.Failed, s.Sensor)
			continue
		}
		byKey := values[s.Sensor]
		if byKey == nil {
			byKey = make(map[int64]float64, len(s.Samples))
			values[s.Sensor] = byKey
		}
		for _, sample := range s.Samples {
			if sample.At.IsZero() {
				continue
			}
			key := canonicalKey(sample.At)
			byKey[key] = sample.Value
			instants[key] = time.UnixMicro(key).UTC()
		}
	}

	if len(instants) == 0 {
		result.Points = Placeholder()
		return result
	}

	keys := make([]int64, 0, len(instants))
	for k := range instants {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if len(keys) > window {
		keys = keys[len(keys)-window:]
	}

	layout := opts.Layout
	if layout == "" {
		layout = autoLayout(instants[keys[0]], instants[keys[len(keys)-1]], loc)
	}

	result.Points = make([]Point, 0, len(keys))
	for _, k := range keys {
		at := instants[k]
		p := Point{At: at, Label: at.In(loc).Format(layout)}
		for _, sensor := range Tracked {
			if v, ok := values[sensor][k]; ok {
				p.set(sensor, v)
			}
		}
		result.Points = append(result.Points, p)
	}
	return result
}

func canonicalKey(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func isTracked(s Sensor) bool {
	for _, t := range Tracked {
		if t == s {
			return true
		}
	}
	return false
}

// autoLayout uses a clock-only label unless the window crosses a day.
func autoLayout(first, last time.Time, loc *time.Location) string {
	fy, fm, fd := first.In(loc).Date()
	ly, lm, ld := last.In(loc).Date()
	if fy == ly && fm == lm && fd == ld {
		return shortLayout
	}
	return longLayout
}
