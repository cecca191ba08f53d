package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/iotdash/internal/prefs"
	"github.com/five82/iotdash/internal/reconcile"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sensorUnits maps a tracked sensor to its display unit.
var sensorUnits = map[reconcile.Sensor]string{
	reconcile.Temperature: "°C",
	reconcile.Humidity:    "%",
}

// renderChart renders the sensor chart pane for the selected device.
func (m Model) renderChart(width, height int) string {
	styles := m.theme.Styles()
	snap := m.snapshot

	var b strings.Builder
	title := "Readings"
	if d, ok := snap.SelectedDevice(); ok {
		title += " · " + displayName(d.Name, d.ID)
	}
	b.WriteString(styles.AccentText.Bold(true).Render(truncate(title, width-8)))
	b.WriteString(" ")
	b.WriteString(styles.FaintText.Render("[" + m.chartStyle + "]"))
	b.WriteString("\n")

	switch {
	case snap.SelectedID == "":
		b.WriteString(styles.MutedText.Render("Select a device to see its readings"))
		return b.String()
	case !snap.ChartCurrent():
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " Loading readings..."))
		return b.String()
	}

	points := snap.Chart
	if len(points) == 0 || (len(points) == 1 && points[0].Placeholder) {
		b.WriteString(styles.MutedText.Render(reconcile.PlaceholderLabel))
		return b.String()
	}

	if m.chartStyle == prefs.ChartBar {
		b.WriteString(m.renderBarChart(points, width, height))
	} else {
		b.WriteString(m.renderLineChart(points, width))
	}
	return b.String()
}

// renderLineChart draws one sparkline row per tracked sensor with the
// latest value, followed by the first and last time labels.
func (m Model) renderLineChart(points []reconcile.Point, width int) string {
	styles := m.theme.Styles()
	labelWidth := 12
	valueWidth := 10
	sparkWidth := maxInt(width-labelWidth-valueWidth-2, len(points))

	var lines []string
	for _, sensor := range reconcile.Tracked {
		values := sensorValues(points, sensor)
		style := m.sensorStyle(sensor)
		latest := fmt.Sprintf("%s%s", formatValue(values[len(values)-1]), sensorUnits[sensor])
		lines = append(lines,
			styles.MutedText.Render(padRight(titleCase(string(sensor)), labelWidth))+
				style.Render(sparkline(values, sparkWidth))+" "+
				styles.Text.Render(latest))
	}

	first, last := points[0].Label, points[len(points)-1].Label
	gap := maxInt(sparkWidth-lipgloss.Width(first)-lipgloss.Width(last), 1)
	lines = append(lines, strings.Repeat(" ", labelWidth)+
		styles.FaintText.Render(first+strings.Repeat(" ", gap)+last))
	return strings.Join(lines, "\n")
}

// renderBarChart draws one row per point with a horizontal bar per sensor.
func (m Model) renderBarChart(points []reconcile.Point, width, height int) string {
	styles := m.theme.Styles()
	labelWidth := 0
	for _, p := range points {
		labelWidth = maxInt(labelWidth, lipgloss.Width(p.Label))
	}
	labelWidth++

	maxima := make(map[reconcile.Sensor]float64, len(reconcile.Tracked))
	for _, sensor := range reconcile.Tracked {
		for _, v := range sensorValues(points, sensor) {
			maxima[sensor] = math.Max(maxima[sensor], v)
		}
	}

	valueWidth := 8
	barSpace := maxInt((width-labelWidth)/len(reconcile.Tracked)-valueWidth-1, 1)

	// Each point takes one line; keep the newest rows when space is short.
	if avail := height - 3; avail > 0 && len(points) > avail {
		points = points[len(points)-avail:]
	}

	var lines []string
	for _, p := range points {
		var row strings.Builder
		row.WriteString(styles.MutedText.Render(padRight(p.Label, labelWidth)))
		for _, sensor := range reconcile.Tracked {
			v := p.Value(sensor)
			n := barWidth(v, maxima[sensor], barSpace)
			row.WriteString(m.sensorStyle(sensor).Render(strings.Repeat("█", n)))
			row.WriteString(strings.Repeat(" ", barSpace-n+1))
			row.WriteString(styles.Text.Render(padRight(formatValue(v)+sensorUnits[sensor], valueWidth)))
		}
		lines = append(lines, row.String())
	}

	var legend []string
	for _, sensor := range reconcile.Tracked {
		legend = append(legend, m.sensorStyle(sensor).Render("█")+" "+styles.FaintText.Render(titleCase(string(sensor))))
	}
	lines = append(lines, strings.Join(legend, "  "))
	return strings.Join(lines, "\n")
}

func (m Model) sensorStyle(sensor reconcile.Sensor) lipgloss.Style {
	styles := m.theme.Styles()
	if sensor == reconcile.Humidity {
		return styles.HumidityText
	}
	return styles.TemperatureText
}

func sensorValues(points []reconcile.Point, sensor reconcile.Sensor) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value(sensor)
	}
	return values
}

// sparkline scales values into block glyphs across width cells. Each value
// gets an equal share of the width; equal values render at mid height.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	cell := maxInt(width/len(values), 1)
	top := len(sparkBlocks) - 1

	var b strings.Builder
	for _, v := range values {
		idx := top / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		b.WriteString(strings.Repeat(string(sparkBlocks[idx]), cell))
	}
	return b.String()
}

// barWidth scales value against max into [0, width]. Any positive value is
// at least one cell wide.
func barWidth(value, max float64, width int) int {
	if value <= 0 || max <= 0 || width <= 0 {
		return 0
	}
	n := int(math.Round(value / max * float64(width)))
	return clamp(n, 1, width)
}
